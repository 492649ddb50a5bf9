// Package identify produces a best-effort metadata guess for a book unit
// from its directory name and, when available, embedded audio tags. The
// guess is intentionally cheap and local; provider enrichment refines it
// and attaches a confidence score.
package identify
