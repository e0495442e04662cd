// Package database provides connection management, configuration loading,
// statement hooks, driver error classification, table bootstrap and SQL seed
// execution built on top of Bun.
package database
