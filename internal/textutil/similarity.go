package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern matches runs of characters that separate tokens.
var tokenSplitPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Tokenize splits text into lowercase tokens. Single-character tokens are
// dropped so punctuation noise and stray initials do not skew scoring.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 2 {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Fingerprint is a term-frequency vector over the tokens of a string.
type Fingerprint struct {
	counts map[string]float64
	norm   float64
}

// NewFingerprint builds a fingerprint from text. Returns nil when the text
// has no usable tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{counts: counts, norm: math.Sqrt(norm)}
}

// TokenCount returns the number of distinct tokens in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.counts)
}

// CosineSimilarity computes the cosine similarity of two fingerprints in the
// range [0, 1]. A nil or empty fingerprint scores 0 against anything.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	small, large := a, b
	if len(large.counts) < len(small.counts) {
		small, large = large, small
	}
	var dot float64
	for token, count := range small.counts {
		if other, ok := large.counts[token]; ok {
			dot += count * other
		}
	}
	return dot / (a.norm * b.norm)
}

// Score compares two strings and returns a 0-100 similarity score.
// Identical token sets score 100 regardless of ordering.
func Score(a, b string) float64 {
	return 100 * CosineSimilarity(NewFingerprint(a), NewFingerprint(b))
}
