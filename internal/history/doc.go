// Package history persists verification runs in a SQLite database so past
// results can be listed and inspected.
//
// Successful and failed verifications are stored as runs with their
// per-track records. Runs that could not complete (missing log, decode
// failure, ...) are stored with status ERROR and the error kind instead.
package history
