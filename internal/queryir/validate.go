package queryir

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Tables lists the columns a query may read, per table.
var Tables = map[string][]string{
	"graphs":       {"id", "name", "ir", "ir_version", "node_count"},
	"runs":         {"id", "graph_id", "kind", "degree", "order_", "point", "params", "time", "mask", "input_hash", "seq", "engine_version", "ir_version"},
	"coefficients": {"run_id", "position", "component", "mi", "multi_index", "coeff", "value"},
}

// Validate reports every problem in q: unknown tables or columns,
// unqualified names in joins, joins without a condition and literals of
// unsupported types.
func Validate(q Query) error {
	v := &validator{}
	v.query(q)
	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) addf(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) query(q Query) {
	switch q := q.(type) {
	case Select:
		v.sel(q)
	case *Select:
		v.sel(*q)
	case Join:
		v.join(q)
	case *Join:
		v.join(*q)
	case nil:
		v.addf("nil query")
	default:
		v.addf("unknown query type %T", q)
	}
}

func (v *validator) sel(s Select) {
	if !v.table(s.From) {
		return
	}
	scope := []string{s.From}
	for _, c := range s.Columns {
		v.column(c, scope, false)
	}
	v.predicate(s.Filter, scope, false)
}

func (v *validator) join(j Join) {
	okLeft, okRight := v.table(j.Left), v.table(j.Right)
	if !okLeft || !okRight {
		return
	}
	if j.Left == j.Right {
		v.addf("self join of %s", j.Left)
		return
	}
	if j.On == nil {
		v.addf("join of %s and %s has no condition", j.Left, j.Right)
	}
	scope := []string{j.Left, j.Right}
	for _, c := range j.Columns {
		v.column(c, scope, true)
	}
	v.predicate(j.On, scope, true)
	v.predicate(j.Filter, scope, true)
}

func (v *validator) table(name string) bool {
	if _, ok := Tables[name]; !ok {
		v.addf("unknown table %q", name)
		return false
	}
	return true
}

// column checks a bare or table-qualified column name against scope.
func (v *validator) column(name string, scope []string, qualified bool) {
	table, col, ok := strings.Cut(name, ".")
	if !ok {
		if qualified {
			v.addf("column %q must be qualified with its table", name)
			return
		}
		table, col = scope[0], name
	}
	if !slices.Contains(scope, table) {
		v.addf("column %q: table %s is not part of the query", name, table)
		return
	}
	if !slices.Contains(Tables[table], col) {
		v.addf("unknown column %q", name)
	}
}

func (v *validator) predicate(p Predicate, scope []string, qualified bool) {
	switch p := p.(type) {
	case nil:
	case Equals:
		v.equals(p, scope, qualified)
	case *Equals:
		v.equals(*p, scope, qualified)
	case FieldEquals:
		v.column(p.Left, scope, qualified)
		v.column(p.Right, scope, qualified)
	case *FieldEquals:
		v.column(p.Left, scope, qualified)
		v.column(p.Right, scope, qualified)
	case And:
		for _, sub := range p.Predicates {
			v.predicate(sub, scope, qualified)
		}
	case *And:
		for _, sub := range p.Predicates {
			v.predicate(sub, scope, qualified)
		}
	default:
		v.addf("unknown predicate type %T", p)
	}
}

func (v *validator) equals(eq Equals, scope []string, qualified bool) {
	v.column(eq.Field, scope, qualified)
	switch eq.Value.(type) {
	case string, int, int64, bool:
	case float32, float64:
		v.addf("%s: float literals cannot be compared, floats are stored as hex text", eq.Field)
	case nil:
		v.addf("%s: NULL literal", eq.Field)
	default:
		v.addf("%s: unsupported literal type %T", eq.Field, eq.Value)
	}
}
