// Package organizer places finished book units into the library tree.
//
// The layout is LibraryDir/Author/Title/Title.m4b plus an Audiobookshelf
// metadata.json. Multi-file units are merged through the converter; a unit
// that is already a single m4b is moved as-is. Low-confidence or rejected
// units go to the manual directory instead.
package organizer
