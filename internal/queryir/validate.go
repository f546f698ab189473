package queryir

import (
	"fmt"
	"slices"
)

// Schema lists the columns of each queryable table.
type Schema map[string][]string

// ValidationResult holds every problem found in a query.
type ValidationResult struct {
	Valid    bool
	Problems []string
}

// Validate checks q against schema: the table must exist, every column and
// filter field must belong to it, values must be string, int64 or bool,
// and Last must not be negative. All problems are reported, not just the
// first.
func Validate(q Query, schema Schema) ValidationResult {
	v := &validator{schema: schema}
	v.validateQuery(q)
	return ValidationResult{Valid: len(v.problems) == 0, Problems: v.problems}
}

type validator struct {
	schema   Schema
	columns  []string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	columns, ok := v.schema[sel.From]
	if !ok {
		v.addProblem("unknown table %q", sel.From)
		return
	}
	v.columns = columns

	if len(sel.Columns) == 0 {
		v.addProblem("select from %s lists no columns", sel.From)
	}
	for _, c := range sel.Columns {
		v.checkField(c)
	}
	if sel.Last < 0 {
		v.addProblem("last must not be negative: %d", sel.Last)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case HasPrefix:
		v.checkField(pred.Field)
	case *HasPrefix:
		v.checkField(pred.Field)
	case And:
		v.validateAnd(pred)
	case *And:
		v.validateAnd(*pred)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	v.checkField(eq.Field)
	switch eq.Value.(type) {
	case string, int64, bool:
	default:
		v.addProblem("field %s compared to unsupported value %T", eq.Field, eq.Value)
	}
}

func (v *validator) validateAnd(and And) {
	for _, sub := range and.Predicates {
		v.validatePredicate(sub)
	}
}

func (v *validator) checkField(name string) {
	if !slices.Contains(v.columns, name) {
		v.addProblem("unknown column %q", name)
	}
}
