// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/jetdag/internal/queryir"
)

// orderKeys is the stable sort key of every table. Every compiled query is
// ordered by the key of its (left) table, so results never depend on the
// physical row order.
var orderKeys = map[string][]string{
	"graphs":       {"id COLLATE BINARY ASC"},
	"runs":         {"seq ASC", "id COLLATE BINARY ASC"},
	"coefficients": {"run_id COLLATE BINARY ASC", "position ASC", "mi ASC", "coeff ASC"},
}

// Compile validates q and converts it to SQL with ? placeholders.
// Literals are never interpolated; they come back in params in
// placeholder order.
func Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch q := q.(type) {
	case queryir.Select:
		return compileSelect(q)
	case *queryir.Select:
		return compileSelect(*q)
	case queryir.Join:
		return compileJoin(q)
	case *queryir.Join:
		return compileJoin(*q)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", columnList(q.Columns), q.From)

	params, err := where(&b, q.Filter)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" ORDER BY " + orderBy(q.From, false))
	return b.String(), params, nil
}

func compileJoin(q queryir.Join) (string, []any, error) {
	var b strings.Builder
	columns := q.Left + ".*"
	if len(q.Columns) > 0 {
		columns = columnList(q.Columns)
	}
	fmt.Fprintf(&b, "SELECT %s FROM %s INNER JOIN %s ON ", columns, q.Left, q.Right)

	on, params, err := predicate(q.On)
	if err != nil {
		return "", nil, fmt.Errorf("compile join condition: %w", err)
	}
	b.WriteString(on)

	filterParams, err := where(&b, q.Filter)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(" ORDER BY " + orderBy(q.Left, true))
	return b.String(), append(params, filterParams...), nil
}

func columnList(columns []string) string {
	if len(columns) == 0 {
		return "*"
	}
	return strings.Join(columns, ", ")
}

// where appends the WHERE clause for filter, if any.
func where(b *strings.Builder, filter queryir.Predicate) ([]any, error) {
	if filter == nil {
		return nil, nil
	}
	sql, params, err := predicate(filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	b.WriteString(" WHERE " + sql)
	return params, nil
}

func orderBy(table string, qualify bool) string {
	keys := orderKeys[table]
	if !qualify {
		return strings.Join(keys, ", ")
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = table + "." + k
	}
	return strings.Join(out, ", ")
}

func predicate(p queryir.Predicate) (string, []any, error) {
	switch p := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return p.Field + " = ?", []any{param(p.Value)}, nil
	case *queryir.Equals:
		return p.Field + " = ?", []any{param(p.Value)}, nil
	case queryir.FieldEquals:
		return p.Left + " = " + p.Right, nil, nil
	case *queryir.FieldEquals:
		return p.Left + " = " + p.Right, nil, nil
	case queryir.And:
		return and(p.Predicates)
	case *queryir.And:
		return and(p.Predicates)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func and(preds []queryir.Predicate) (string, []any, error) {
	if len(preds) == 0 {
		return "1 = 1", nil, nil
	}
	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := predicate(p)
		if err != nil {
			return "", nil, err
		}
		if _, nested := p.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// param converts a literal to its driver value. Booleans are stored as
// integers.
func param(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}
