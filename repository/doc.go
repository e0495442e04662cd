// Package repository provides the criteria-driven repository contract and a
// generic implementation that runs composed statements over connections
// acquired per call, with an upsert-aware save path.
package repository
