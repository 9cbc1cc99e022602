// Package history records uploaded and followed jobs in a local SQLite
// database so unfinished jobs can be resumed after a restart.
package history
