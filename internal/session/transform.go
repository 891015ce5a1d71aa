package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/quarrydata/quarry/internal/dataset"
	"github.com/quarrydata/quarry/internal/filter"
)

// Sort orders a dataset by one or more columns and registers the result
// under the fixed <name>_sorted suffix, so a second sort on the same source
// replaces the first. Mismatched column/descending lengths zip to the
// shorter list.
func (s *Session) Sort(ctx context.Context, name string, columns []string, descending []bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(columns) == 0 {
		return "", dataset.Errf(dataset.CodeInvalidArgument, "sort requires at least one column")
	}

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	newName := name + "_sorted"

	switch sub {
	case substratePersistent:
		n := len(columns)
		if len(descending) < n {
			n = len(descending)
		}
		clauses := make([]string, n)
		for i := 0; i < n; i++ {
			dir := "ASC"
			if descending[i] {
				dir = "DESC"
			}
			clauses[i] = quoteIdent(columns[i]) + " " + dir
		}
		query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s",
			quoteIdent(name), strings.Join(clauses, ", "))
		return s.storage.ExecuteSQLToTable(ctx, query, newName)

	default:
		s.transient[newName] = s.transient[name].Sort(columns, descending)
		return newName, nil
	}
}

// FilterSQL filters a persistent dataset with a raw WHERE clause and
// materializes the result as <name>_filtered_<counter>.
//
// The clause is interpolated directly: this entry point is NOT
// injection-safe and must only be reached with trusted or pre-validated
// text such as compiler output. Untrusted input goes through
// FilterStructured.
func (s *Session) FilterSQL(ctx context.Context, name, whereClause string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filterSQLLocked(ctx, name, whereClause)
}

func (s *Session) filterSQLLocked(ctx context.Context, name, whereClause string) (string, error) {
	sub, err := s.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if sub != substratePersistent {
		return "", dataset.Errf(dataset.CodeSession,
			"SQL filter requires an active project; dataset %q is not a persistent table", name)
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s", quoteIdent(name), whereClause)
	resultName := fmt.Sprintf("%s_filtered_%d", name, s.nextCounter())
	return s.storage.ExecuteSQLToTable(ctx, query, resultName)
}

// FilterStructured is the injection-safe filter path: the conditions are
// compiled through the predicate compiler, then delegated to the raw-SQL
// path. This is the only filter entry point that should face untrusted
// input.
func (s *Session) FilterStructured(ctx context.Context, name string, spec filter.Spec) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	whereClause, err := spec.WhereClause()
	if err != nil {
		return "", err
	}
	return s.filterSQLLocked(ctx, name, whereClause)
}

// GroupBy groups a persistent dataset and materializes the result as
// <name>_grouped_<counter>. The aggregate expressions are raw SQL
// fragments (e.g. "AVG(salary)") and are not validated, the same trust
// boundary as FilterSQL.
func (s *Session) GroupBy(ctx context.Context, name string, groupColumns, aggExprs []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(groupColumns) == 0 || len(aggExprs) == 0 {
		return "", dataset.Errf(dataset.CodeInvalidArgument,
			"group by requires at least one group column and one aggregate expression")
	}

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if sub != substratePersistent {
		return "", dataset.Errf(dataset.CodeSession,
			"group by requires a persistent table; dataset %q is transient", name)
	}

	quoted := make([]string, len(groupColumns))
	for i, c := range groupColumns {
		quoted[i] = quoteIdent(c)
	}
	groupList := strings.Join(quoted, ", ")

	query := fmt.Sprintf("SELECT %s, %s FROM %s GROUP BY %s",
		groupList, strings.Join(aggExprs, ", "), quoteIdent(name), groupList)
	resultName := fmt.Sprintf("%s_grouped_%d", name, s.nextCounter())
	return s.storage.ExecuteSQLToTable(ctx, query, resultName)
}

// AddCalculatedColumn appends (<expr>) AS "<alias>" to a SELECT * over a
// persistent dataset, materialized as <name>_calc_<counter>. expr is raw
// SQL, same trust boundary as GroupBy.
func (s *Session) AddCalculatedColumn(ctx context.Context, name, expr, alias string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expr == "" || alias == "" {
		return "", dataset.Errf(dataset.CodeInvalidArgument,
			"calculated column requires an expression and an alias")
	}

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return "", err
	}
	if sub != substratePersistent {
		return "", dataset.Errf(dataset.CodeSession,
			"calculated columns require a persistent table; dataset %q is transient", name)
	}

	query := fmt.Sprintf("SELECT *, (%s) AS %s FROM %s", expr, quoteIdent(alias), quoteIdent(name))
	resultName := fmt.Sprintf("%s_calc_%d", name, s.nextCounter())
	return s.storage.ExecuteSQLToTable(ctx, query, resultName)
}

// ExportCSV writes a dataset to a CSV file: native COPY for persistent
// tables, a streaming sink for transient frames.
func (s *Session) ExportCSV(ctx context.Context, name, outputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	if sub == substratePersistent {
		return s.storage.ExportCSV(ctx, name, outputPath)
	}
	return s.transient[name].SinkCSV(ctx, outputPath)
}

// ExportParquet writes a dataset to a Parquet file, same routing as
// ExportCSV.
func (s *Session) ExportParquet(ctx context.Context, name, outputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, err := s.resolve(ctx, name)
	if err != nil {
		return err
	}
	if sub == substratePersistent {
		return s.storage.ExportParquet(ctx, name, outputPath)
	}
	return s.transient[name].SinkParquet(ctx, outputPath)
}
