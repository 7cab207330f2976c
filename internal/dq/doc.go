// Package dq implements the validation engine: stateless checks that decide
// whether one or two datasets, or a warehouse table, satisfy a data-quality
// property.
//
// Every check returns nil on success. A failure is one of three error kinds:
//
//   - *ConfigError: the invocation itself is invalid (unknown column, bad
//     rule, unsupported expected type). Raised before any data is inspected.
//   - *AssertionError: the data violates the property. Its Diagnostic holds
//     the offending rows, columns or counts.
//   - *IOError: the catalog failed, so the check could not run.
//
// Checks never modify their input datasets. Reconcile harmonizes column types
// on converted copies.
//
// The engine is synchronous. The only blocking calls are the catalog calls
// made by TableExists, TableNotEmpty and CheckSchema; they are not retried.
package dq
