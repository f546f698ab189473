// Package queryir is a small query IR for reading the run log.
//
// Callers describe which runs they want with a Select over a table, a
// filter built from Equals, HasPrefix and And predicates, and an optional
// Last bound. A backend (see querysql) turns the query into its own
// language. Keeping the description abstract lets the CLI build filters
// from flags without assembling SQL strings.
//
// Query and Predicate are sealed interfaces: only types in this package
// implement them, so backends can switch over them exhaustively.
//
// Example:
//
//	q := queryir.Select{
//		From:    "runs",
//		Columns: []string{"id", "answer"},
//		Filter: queryir.And{Predicates: []queryir.Predicate{
//			queryir.Equals{Field: "mode", Value: "period"},
//			queryir.HasPrefix{Field: "network_hash", Prefix: "3fa9"},
//		}},
//		Last: 10,
//	}
//
// Values are restricted to string, int64 and bool, the same scalar set
// canonical JSON accepts; floats and nil never reach a backend.
package queryir
