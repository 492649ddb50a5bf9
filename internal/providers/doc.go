// Package providers queries external book metadata services and enriches
// an identification guess with the best-scoring match.
//
// Two services are supported, selected by configuration: the Open Library
// search API and the Google Books volumes API. Candidates from every enabled
// provider are scored against the guess with token cosine similarity on a
// 0-100 scale; the winner's fields fill gaps in the guess, and a score above
// the replacement threshold overrides the guessed title and author outright.
package providers
