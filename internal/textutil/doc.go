// Package textutil provides text helpers for metadata matching and
// filesystem-safe naming.
//
// Matching works on token frequency vectors: candidate titles and authors
// from lookup providers are tokenized, turned into fingerprints, and scored
// against the parsed book name with cosine similarity. Scores are reported
// on a 0-100 scale.
package textutil
