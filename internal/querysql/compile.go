// Package querysql compiles queryir queries to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/pulse/internal/queryir"
)

// SQLCompiler compiles queryir queries for SQLite.
//
// Every query carries an ORDER BY with a binary-collated tiebreaker, and
// values are always bound as parameters, never interpolated.
type SQLCompiler struct {
	// OrderKeys maps a table to the column defining its log order. Tables
	// without an entry are ordered by id alone.
	OrderKeys map[string]string
}

// NewSQLCompiler creates a compiler with the given order keys.
func NewSQLCompiler(orderKeys map[string]string) *SQLCompiler {
	return &SQLCompiler{OrderKeys: orderKeys}
}

// Compile converts q to SQL and its parameters. Compile does not check
// column names; run queryir.Validate first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		if query == nil {
			return "", nil, fmt.Errorf("cannot compile nil query")
		}
		return c.compileSelect(*query)
	case nil:
		return "", nil, fmt.Errorf("cannot compile nil query")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	if len(q.Columns) == 0 {
		return "", nil, fmt.Errorf("select from %s lists no columns", q.From)
	}
	columns := strings.Join(q.Columns, ", ")

	var where string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = " WHERE " + filterSQL
		params = filterParams
	}

	inner := fmt.Sprintf("SELECT %s FROM %s%s", columns, q.From, where)
	if q.Last <= 0 {
		return inner + " ORDER BY " + c.orderKey(q.From, "ASC"), params, nil
	}

	// Take the newest rows, then restore log order.
	sql := fmt.Sprintf("SELECT %s FROM (%s ORDER BY %s LIMIT ?) ORDER BY %s",
		columns, inner, c.orderKey(q.From, "DESC"), c.orderKey(q.From, "ASC"))
	return sql, append(params, int64(q.Last)), nil
}

// orderKey returns the deterministic ORDER BY list for table.
func (c *SQLCompiler) orderKey(table, dir string) string {
	tiebreak := "id COLLATE BINARY " + dir
	if key, ok := c.OrderKeys[table]; ok && key != "id" {
		return key + " " + dir + ", " + tiebreak
	}
	return tiebreak
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileEquals(pred)
	case *queryir.Equals:
		return compileEquals(*pred)
	case queryir.HasPrefix:
		return compileHasPrefix(pred)
	case *queryir.HasPrefix:
		return compileHasPrefix(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case nil:
		return "", nil, fmt.Errorf("nil predicate")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileEquals(eq queryir.Equals) (string, []any, error) {
	param, err := toParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("field %s: %w", eq.Field, err)
	}
	return eq.Field + " = ?", []any{param}, nil
}

// compileHasPrefix avoids LIKE so that % and _ in the prefix match
// literally.
func compileHasPrefix(hp queryir.HasPrefix) (string, []any, error) {
	return fmt.Sprintf("substr(%s, 1, ?) = ?", hp.Field), []any{int64(len(hp.Prefix)), hp.Prefix}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}
	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func toParam(v any) (any, error) {
	switch val := v.(type) {
	case string, int64, bool:
		return val, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
