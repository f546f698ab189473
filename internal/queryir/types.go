package queryir

// Query is a sealed query node.
type Query interface {
	queryNode()
}

// Predicate is a sealed filter node.
type Predicate interface {
	predicateNode()
}

// Select reads Columns from a table, keeping rows that satisfy Filter.
//
// Rows always come back in the table's log order. When Last is positive,
// only the last Last rows of that order are returned.
type Select struct {
	From    string
	Columns []string
	Filter  Predicate // nil = every row
	Last    int
}

func (Select) queryNode() {}

// Equals matches rows whose field equals a scalar value.
type Equals struct {
	Field string
	Value any // string, int64 or bool
}

func (Equals) predicateNode() {}

// HasPrefix matches rows whose text field starts with Prefix. It is meant
// for abbreviated hashes.
type HasPrefix struct {
	Field  string
	Prefix string
}

func (HasPrefix) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches
// everything.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where combines predicates, dropping nils. It returns nil when nothing is
// left and the single predicate when only one is.
func Where(preds ...Predicate) Predicate {
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
	}
	return And{Predicates: kept}
}
