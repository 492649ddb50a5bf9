// Package ingest turns single file arrivals into completed book units.
//
// The grouper debounces arrivals per directory: a directory is emitted as
// one unit once no new file has landed for the configured quiet window.
// Zip archives are expanded into a sibling directory before their contents
// join the same stream. The manager ties both to the configured extension
// filter and hands finished groups to the librarian.
package ingest
