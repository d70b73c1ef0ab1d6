// Package journal records merge runs and the outcome of every item they
// touch in a SQLite database, so an interrupted or partial run can be
// inspected afterwards with `photomerge runs`.
package journal
