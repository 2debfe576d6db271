package queryir

// Query is a read over the store's tables.
type Query interface {
	queryNode()
}

// Predicate filters rows.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from one table.
//
//	SELECT <columns> FROM <from> WHERE <filter>
type Select struct {
	From    string
	Filter  Predicate // nil = every row
	Columns []string  // empty = every column of From
}

func (Select) queryNode() {}

// Join is an inner join of two tables. Every field and column must be
// qualified with its table name.
//
//	SELECT <columns> FROM <left> INNER JOIN <right> ON <on> WHERE <filter>
type Join struct {
	Left    string
	Right   string
	On      Predicate // required
	Filter  Predicate
	Columns []string // empty = every column of Left
}

func (Join) queryNode() {}

// Equals compares a column with a literal.
type Equals struct {
	Field string
	Value any // string, int, int64 or bool
}

func (Equals) predicateNode() {}

// FieldEquals compares two columns.
type FieldEquals struct {
	Left  string
	Right string
}

func (FieldEquals) predicateNode() {}

// And is true when every predicate is. An empty And is true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// AllOf conjoins the non-nil predicates. It returns nil when there are
// none and the predicate itself when there is one.
func AllOf(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
