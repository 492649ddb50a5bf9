package identify

import "context"

// Tags holds metadata read from an audio file's embedded tags.
type Tags struct {
	Title    string
	Author   string
	Narrator string
	Year     int
}

// TagReader extracts embedded tags from an audio file. Implementations live
// outside this package; a nil result with a nil error means no usable tags.
type TagReader interface {
	ReadTags(ctx context.Context, path string) (*Tags, error)
}

// NopTagReader satisfies TagReader without reading anything.
type NopTagReader struct{}

// ReadTags always reports no tags.
func (NopTagReader) ReadTags(context.Context, string) (*Tags, error) {
	return nil, nil
}
