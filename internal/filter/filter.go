// Package filter compiles structured filter specifications into SQL boolean
// expressions safe for direct interpolation into a WHERE clause. This is the
// only path through which untrusted filter input may reach SQL text.
package filter

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/quarrydata/quarry/internal/dataset"
)

// Operator is a typed comparison operator for a single condition.
type Operator string

const (
	Equals             Operator = "equals"
	NotEquals          Operator = "not_equals"
	GreaterThan        Operator = "greater_than"
	GreaterThanOrEqual Operator = "greater_than_or_equal"
	LessThan           Operator = "less_than"
	LessThanOrEqual    Operator = "less_than_or_equal"
	Contains           Operator = "contains"
	NotContains        Operator = "not_contains"
	StartsWith         Operator = "starts_with"
	EndsWith           Operator = "ends_with"
	IsNull             Operator = "is_null"
	IsNotNull          Operator = "is_not_null"
)

// Logic combines all conditions of a Spec uniformly. There is no per-pair
// nesting or precedence mixing.
type Logic string

const (
	And Logic = "and"
	Or  Logic = "or"
)

// Condition is a single {column, operator, value} triple. Values are always
// carried as strings; the compiler decides numeric-vs-string emission.
type Condition struct {
	Column   string
	Operator Operator
	Value    string
}

// Spec is an immutable filter description: an ordered condition list and one
// combinator applied across all of them.
type Spec struct {
	Conditions []Condition
	Logic      Logic
}

// WhereClause compiles the spec to a single SQL boolean expression.
// Fails with an INVALID_FILTER error when the condition list is empty, a
// column name violates the identifier allow-list, or an operator is unknown.
//
// The numeric-vs-quoted heuristic for comparison operators is deliberately
// not checked against the target column's declared type; a numeric-looking
// string compared against a text column is the caller's responsibility.
func (s Spec) WhereClause() (string, error) {
	if len(s.Conditions) == 0 {
		return "", dataset.Errf(dataset.CodeInvalidFilter, "filter must have at least one condition")
	}

	clauses := make([]string, 0, len(s.Conditions))
	for _, c := range s.Conditions {
		clause, err := compileCondition(c)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}

	joiner := " AND "
	if s.Logic == Or {
		joiner = " OR "
	}
	return strings.Join(clauses, joiner), nil
}

func compileCondition(c Condition) (string, error) {
	col, err := quoteColumn(c.Column)
	if err != nil {
		return "", err
	}

	switch c.Operator {
	case Equals:
		return col + " = " + literal(c.Value), nil
	case NotEquals:
		return col + " != " + literal(c.Value), nil
	case GreaterThan:
		return col + " > " + literal(c.Value), nil
	case GreaterThanOrEqual:
		return col + " >= " + literal(c.Value), nil
	case LessThan:
		return col + " < " + literal(c.Value), nil
	case LessThanOrEqual:
		return col + " <= " + literal(c.Value), nil
	case Contains:
		return col + " LIKE '%" + likePattern(c.Value) + "%'" + likeEscape, nil
	case NotContains:
		return col + " NOT LIKE '%" + likePattern(c.Value) + "%'" + likeEscape, nil
	case StartsWith:
		return col + " LIKE '" + likePattern(c.Value) + "%'" + likeEscape, nil
	case EndsWith:
		return col + " LIKE '%" + likePattern(c.Value) + "'" + likeEscape, nil
	case IsNull:
		return col + " IS NULL", nil
	case IsNotNull:
		return col + " IS NOT NULL", nil
	default:
		return "", dataset.Errf(dataset.CodeInvalidFilter, "unknown filter operator: %s", c.Operator)
	}
}

// quoteColumn validates a column name against the identifier allow-list and
// wraps it in double quotes. This is the sole injection boundary for
// identifiers: letters, digits, underscore, space, and dot only, length
// 1-256. Embedded double quotes are doubled, though the allow-list already
// excludes them.
func quoteColumn(name string) (string, error) {
	if name == "" || len(name) > 256 {
		return "", dataset.Errf(dataset.CodeInvalidFilter, "invalid column name length: %q", name)
	}
	for _, r := range name {
		if !isIdentRune(r) {
			return "", dataset.Errf(dataset.CodeInvalidFilter, "invalid column name: %s", name)
		}
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`, nil
}

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == ' ' || r == '.'
}

// literal emits a value for equality and ordering operators: a value that
// parses entirely as a float64 is emitted bare so `age = 30` compares
// numerically; anything else becomes a quote-escaped string literal.
func literal(v string) string {
	if isNumeric(v) {
		return v
	}
	return "'" + escapeString(v) + "'"
}

func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// escapeString doubles embedded single quotes for safe embedding in a SQL
// single-quoted literal.
func escapeString(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}

// likeEscape pins backslash as the pattern escape character; without it the
// engine would treat the escaped wildcards below literally as backslashes.
const likeEscape = ` ESCAPE '\'`

// likePattern escapes a value for use inside a LIKE pattern: single quotes
// doubled, then both pattern wildcards backslash-escaped so user-supplied
// `%` and `_` match literally.
func likePattern(v string) string {
	s := escapeString(v)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
