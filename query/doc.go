// Package query composes parameterized SQL statements from a declared entity
// schema, caller criteria, sort specifications and page requests.
package query
