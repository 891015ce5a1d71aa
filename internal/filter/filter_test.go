package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/quarry/internal/dataset"
)

func one(col string, op Operator, val string) Spec {
	return Spec{
		Conditions: []Condition{{Column: col, Operator: op, Value: val}},
		Logic:      And,
	}
}

func TestWhereClause_SimpleEquals(t *testing.T) {
	sql, err := one("city", Equals, "Boston").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"city" = 'Boston'`, sql)
}

func TestWhereClause_NumericComparison(t *testing.T) {
	sql, err := one("age", GreaterThan, "30").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"age" > 30`, sql)
}

func TestWhereClause_NumericEquals(t *testing.T) {
	sql, err := one("age", Equals, "30").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"age" = 30`, sql)
}

func TestWhereClause_MultiConditionAnd(t *testing.T) {
	spec := Spec{
		Conditions: []Condition{
			{Column: "age", Operator: GreaterThan, Value: "25"},
			{Column: "city", Operator: Equals, Value: "Boston"},
		},
		Logic: And,
	}
	sql, err := spec.WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"age" > 25 AND "city" = 'Boston'`, sql)
}

func TestWhereClause_MultiConditionOr(t *testing.T) {
	spec := Spec{
		Conditions: []Condition{
			{Column: "city", Operator: Equals, Value: "Boston"},
			{Column: "city", Operator: Equals, Value: "Chicago"},
		},
		Logic: Or,
	}
	sql, err := spec.WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"city" = 'Boston' OR "city" = 'Chicago'`, sql)
}

func TestWhereClause_Contains(t *testing.T) {
	sql, err := one("name", Contains, "li").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"name" LIKE '%li%' ESCAPE '\'`, sql)
}

func TestWhereClause_IsNullIgnoresValue(t *testing.T) {
	sql, err := one("score", IsNull, "ignored").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"score" IS NULL`, sql)
}

func TestWhereClause_IsNotNull(t *testing.T) {
	sql, err := one("score", IsNotNull, "").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"score" IS NOT NULL`, sql)
}

func TestWhereClause_EmptyConditions(t *testing.T) {
	_, err := Spec{Logic: And}.WhereClause()
	require.Error(t, err)
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidFilter))
}

func TestWhereClause_UnknownOperator(t *testing.T) {
	_, err := one("age", Operator("between"), "1").WhereClause()
	require.Error(t, err)
	assert.True(t, dataset.IsCode(err, dataset.CodeInvalidFilter))
}

func TestWhereClause_InjectionViaValue(t *testing.T) {
	sql, err := one("name", Equals, "'; DROP TABLE users; --").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"name" = '''; DROP TABLE users; --'`, sql)

	// No unescaped single quote from the user value may survive.
	inner := strings.TrimSuffix(strings.TrimPrefix(sql, `"name" = '`), `'`)
	assert.NotContains(t, strings.ReplaceAll(inner, "''", ""), "'")
}

func TestWhereClause_InjectionViaComparisonValue(t *testing.T) {
	sql, err := one("age", GreaterThan, "0; DROP TABLE users; --").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"age" > '0; DROP TABLE users; --'`, sql)
}

func TestWhereClause_InvalidColumnRejected(t *testing.T) {
	for _, col := range []string{
		"col; DROP TABLE x",
		`col"`,
		"col'name",
		"",
		strings.Repeat("c", 257),
	} {
		_, err := one(col, Equals, "val").WhereClause()
		require.Error(t, err, "column %q must be rejected", col)
		assert.True(t, dataset.IsCode(err, dataset.CodeInvalidFilter))
	}
}

func TestWhereClause_ColumnAllowList(t *testing.T) {
	for _, col := range []string{"age", "first name", "addr.city", "col_1", "über"} {
		_, err := one(col, Equals, "val").WhereClause()
		assert.NoError(t, err, "column %q must be accepted", col)
	}
}

func TestWhereClause_NonNumericComparisonQuoted(t *testing.T) {
	sql, err := one("created_at", GreaterThan, "2024-01-01").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"created_at" > '2024-01-01'`, sql)
}

func TestWhereClause_LikeWildcardsEscaped(t *testing.T) {
	sql, err := one("name", Contains, "100%_done").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"name" LIKE '%100\%\_done%' ESCAPE '\'`, sql)
}

func TestWhereClause_UnicodeValue(t *testing.T) {
	sql, err := one("city", Equals, "über").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"city" = 'über'`, sql)
}

func TestWhereClause_EmptyStringValue(t *testing.T) {
	sql, err := one("name", Equals, "").WhereClause()
	require.NoError(t, err)
	assert.Equal(t, `"name" = ''`, sql)
}
