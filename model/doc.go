// Package model declares the entities persisted by inkwell repositories.
// Each model registers itself so database.Bootstrap can create its table.
package model
