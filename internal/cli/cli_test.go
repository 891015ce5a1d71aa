package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv writes a config pointing the registry at a temp directory and
// returns the common flags every invocation needs.
func testEnv(t *testing.T) (configPath, projectPath string) {
	t.Helper()
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	projectPath = filepath.Join(dir, "project.duckdb")
	content := "registry_path: " + filepath.Join(dir, "recent.db") + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))
	return configPath, projectPath
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), "command %v failed: %s", args, out.String())
	return out.String()
}

func TestImportThenPreview(t *testing.T) {
	configPath, projectPath := testEnv(t)

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("name,age\nAlice,30\nBob,25\n"), 0o644))

	out := runCommand(t,
		"--config", configPath, "--project", projectPath,
		"import", csvPath, "--name", "people")
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "people")

	out = runCommand(t,
		"--config", configPath, "--project", projectPath,
		"preview", "people")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "Bob")
}

func TestDatasetsListAndRemove(t *testing.T) {
	configPath, projectPath := testEnv(t)

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("name,age\nAlice,30\n"), 0o644))

	runCommand(t,
		"--config", configPath, "--project", projectPath,
		"import", csvPath, "--name", "people")

	out := runCommand(t,
		"--config", configPath, "--project", projectPath,
		"datasets", "list")
	assert.Contains(t, out, "people")

	out = runCommand(t,
		"--config", configPath, "--project", projectPath,
		"datasets", "rm", "people")
	assert.Contains(t, out, "removed people")
}

func TestRecentListAfterImport(t *testing.T) {
	configPath, projectPath := testEnv(t)

	csvPath := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(csvPath,
		[]byte("name,age\nAlice,30\n"), 0o644))

	runCommand(t,
		"--config", configPath, "--project", projectPath,
		"import", csvPath, "--name", "people")

	out := runCommand(t, "--config", configPath, "recent", "list")
	assert.Contains(t, out, "project")
}

func TestNoProjectError(t *testing.T) {
	configPath, _ := testEnv(t)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--config", configPath, "datasets", "list"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
