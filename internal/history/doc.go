// Package history persists per-book processing state backed by SQLite.
//
// Each record is keyed by the book directory path and carries a content
// hash of the directory's files. The librarian consults the store before
// working on a directory: a processed record with an unchanged hash means
// the book was already handled and is skipped. The store also backs crash
// recovery, since pending records survive restarts and are requeued.
package history
