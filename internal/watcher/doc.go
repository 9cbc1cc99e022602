// Package watcher hands new audio files dropped into a directory to a
// handler, with bounded concurrency.
package watcher
