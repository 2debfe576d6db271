// Package queryir describes reads over the store's tables as data.
//
// A query is a Select over one table or an inner Join of two, filtered by
// a conjunction of equality predicates:
//
//	Join{
//	  Left: "runs", Right: "graphs",
//	  On:     FieldEquals{Left: "runs.graph_id", Right: "graphs.id"},
//	  Filter: Equals{Field: "graphs.name", Value: "lorenz"},
//	}
//
// Query and Predicate are sealed: only types in this package implement
// them, so backends can switch over them exhaustively. The SQL backend is
// package querysql.
//
// Literals are strings, integers or booleans. Floats are stored as hex
// text and never compared by value, so float literals are rejected.
package queryir
