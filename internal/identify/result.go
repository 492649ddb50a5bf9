package identify

// Result is the metadata record threaded through the pipeline. Known fields
// are explicit; provider-specific oddities go in Extra.
type Result struct {
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	Narrator    string            `json:"narrator,omitempty"`
	Year        int               `json:"year,omitempty"`
	ISBN        string            `json:"isbn,omitempty"`
	ASIN        string            `json:"asin,omitempty"`
	Description string            `json:"description,omitempty"`
	CoverURL    string            `json:"cover_url,omitempty"`
	Source      string            `json:"source,omitempty"`
	Confidence  float64           `json:"confidence"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := *r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return &out
}

// DisplayName renders "Author - Title" for logs and notifications.
func (r *Result) DisplayName() string {
	if r == nil {
		return ""
	}
	switch {
	case r.Author != "" && r.Title != "":
		return r.Author + " - " + r.Title
	case r.Title != "":
		return r.Title
	default:
		return r.Author
	}
}
