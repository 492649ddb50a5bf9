// Package converter merges the audio files of a book unit into a single
// chaptered m4b by driving ffmpeg, and reads stream metadata with ffprobe.
// Each input file becomes one chapter; chapter boundaries come from probed
// durations.
package converter
