package filter

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

// TestWhereClause_Golden pins the full compiled output for a representative
// spec set. Regenerate with: go test ./internal/filter -update
func TestWhereClause_Golden(t *testing.T) {
	cases := []struct {
		name string
		spec Spec
	}{
		{"equals_string", one("city", Equals, "Boston")},
		{"equals_numeric", one("age", Equals, "30")},
		{"not_equals", one("city", NotEquals, "Boston")},
		{"greater_than", one("age", GreaterThan, "25")},
		{"greater_or_equal", one("age", GreaterThanOrEqual, "25")},
		{"less_than", one("score", LessThan, "90.5")},
		{"less_or_equal", one("score", LessThanOrEqual, "90.5")},
		{"date_comparison", one("created_at", GreaterThan, "2024-01-01")},
		{"contains", one("name", Contains, "li")},
		{"not_contains", one("name", NotContains, "li")},
		{"starts_with", one("name", StartsWith, "Al")},
		{"ends_with", one("name", EndsWith, "ce")},
		{"is_null", one("score", IsNull, "")},
		{"is_not_null", one("score", IsNotNull, "")},
		{"injection_value", one("name", Equals, "'; DROP TABLE users; --")},
		{"wildcard_literal", one("name", Contains, "100%_done")},
		{"multi_and", Spec{
			Conditions: []Condition{
				{Column: "age", Operator: GreaterThan, Value: "25"},
				{Column: "city", Operator: Equals, Value: "Boston"},
			},
			Logic: And,
		}},
		{"multi_or", Spec{
			Conditions: []Condition{
				{Column: "city", Operator: Equals, Value: "Boston"},
				{Column: "city", Operator: Equals, Value: "Chicago"},
			},
			Logic: Or,
		}},
	}

	var b strings.Builder
	for _, tc := range cases {
		sql, err := tc.spec.WhereClause()
		require.NoError(t, err, tc.name)
		b.WriteString(tc.name)
		b.WriteString(": ")
		b.WriteString(sql)
		b.WriteString("\n")
	}

	g := goldie.New(t)
	g.Assert(t, "where_clauses", []byte(b.String()))
}
