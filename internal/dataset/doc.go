// Package dataset provides the in-memory tabular model consumed by the
// validation engine.
//
// A Dataset is an ordered list of named columns. Each column carries an
// explicit Type tag that is decided once, when the data is ingested, and
// never re-inferred afterwards. The tag fixes the concrete Go type of every
// non-null cell in the column:
//
//	String    -> string
//	Int       -> int64
//	Float     -> float64
//	Numeric   -> decimal.Decimal
//	Bool      -> bool
//	Timestamp -> time.Time (UTC)
//	Date      -> time.Time (midnight UTC)
//
// Null cells are represented by nil regardless of the column type.
//
// # Invariants
//
//   - All columns of a dataset have the same number of rows.
//   - Column names are unique within a dataset.
//   - Every non-null cell matches its column's Go type.
//
// # Row keys
//
// Key produces a canonical, type-tagged encoding of a row restricted to a set
// of columns. Two tuples are equal exactly when their keys are equal. Grouper
// counts tuples by key; it buckets keys by their xxh3 hash and keeps groups in
// first-occurrence order so reports are deterministic.
package dataset
