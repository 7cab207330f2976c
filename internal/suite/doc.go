// Package suite loads and runs data quality suites.
//
// A suite is a YAML file naming the datasets to fetch and the checks to run
// against them:
//
//	name: orders_quality
//	tables:
//	  ORDERS: proj.sales.orders
//	datasets:
//	  orders:
//	    query: SELECT id, qty, status FROM {{.ORDERS}}
//	checks:
//	  - id: TC-001
//	    type: duplicates
//	    dataset: orders
//	    columns: [id]
//	  - id: TC-002
//	    type: column_validity
//	    dataset: orders
//	    rules:
//	      - column: qty
//	        min: 1
//	      - column: status
//	        one_of: [open, shipped]
//
// Loading decodes the file strictly, validates its structure against an
// embedded CUE schema and then checks references between datasets and
// checks. The Runner fetches datasets concurrently and runs checks in
// declaration order; every check yields a CheckResult whether it passed,
// failed or could not run.
package suite
