package providers

import (
	"context"
	"log/slog"
	"time"

	"autolib/internal/config"
	"autolib/internal/identify"
	"autolib/internal/logging"
	"autolib/internal/textutil"
)

// replacementScore is the confidence above which a candidate's title and
// author override the local guess instead of only filling gaps.
const replacementScore = 90

// Aggregator fans a guess out to every configured provider and merges the
// best-scoring candidate back into it.
type Aggregator struct {
	providers []Provider
	logger    *slog.Logger
}

// NewAggregator builds an aggregator from the configured provider names.
func NewAggregator(cfg *config.Config, logger *slog.Logger) (*Aggregator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Matching.RequestTimeout) * time.Second

	var list []Provider
	for _, name := range cfg.Matching.Providers {
		switch name {
		case "openlibrary":
			client, err := NewOpenLibrary(DefaultOpenLibraryBaseURL, timeout)
			if err != nil {
				return nil, err
			}
			list = append(list, client)
		case "googlebooks":
			client, err := NewGoogleBooks(DefaultGoogleBooksBaseURL, timeout)
			if err != nil {
				return nil, err
			}
			list = append(list, client)
		}
	}
	return NewAggregatorWith(logger, list...), nil
}

// NewAggregatorWith builds an aggregator over explicit providers.
func NewAggregatorWith(logger *slog.Logger, providers ...Provider) *Aggregator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Aggregator{
		providers: providers,
		logger:    logging.NewComponentLogger(logger, "providers"),
	}
}

// Enrich queries every provider and merges the best candidate into a copy
// of the guess. With no usable candidate the guess comes back unchanged
// with zero confidence. Provider failures are logged and skipped, never
// fatal: a book with no match still flows through the pipeline.
func (a *Aggregator) Enrich(ctx context.Context, guess *identify.Result) (*identify.Result, error) {
	result := guess.Clone()
	if result == nil {
		result = &identify.Result{}
	}

	var (
		best      Candidate
		bestScore float64
		found     bool
	)
	for _, provider := range a.providers {
		candidates, err := provider.Search(ctx, result.Title, result.Author)
		if err != nil {
			a.logger.Warn("provider search failed",
				logging.String("provider", provider.Name()),
				logging.Error(err))
			continue
		}
		for _, cand := range candidates {
			score := scoreCandidate(result, cand)
			if !found || score > bestScore {
				best = cand
				bestScore = score
				found = true
			}
		}
	}

	if !found {
		result.Confidence = 0
		return result, nil
	}

	merge(result, best, bestScore)
	a.logger.Info("guess enriched",
		logging.String("provider", best.Source),
		logging.String("title", result.Title),
		logging.Float64("confidence", result.Confidence))
	return result, nil
}

// scoreCandidate weighs title similarity over author similarity. A missing
// author on either side falls back to title-only scoring.
func scoreCandidate(guess *identify.Result, cand Candidate) float64 {
	titleScore := textutil.Score(guess.Title, cand.Title)
	if guess.Author == "" || cand.Author == "" {
		return titleScore
	}
	authorScore := textutil.Score(guess.Author, cand.Author)
	return 0.6*titleScore + 0.4*authorScore
}

func merge(result *identify.Result, cand Candidate, score float64) {
	if score > replacementScore {
		if cand.Title != "" {
			result.Title = cand.Title
		}
		if cand.Author != "" {
			result.Author = cand.Author
		}
	} else {
		if result.Title == "" {
			result.Title = cand.Title
		}
		if result.Author == "" {
			result.Author = cand.Author
		}
	}
	if result.Year == 0 {
		result.Year = cand.Year
	}
	if result.ISBN == "" {
		result.ISBN = cand.ISBN
	}
	if result.ASIN == "" {
		result.ASIN = cand.ASIN
	}
	if result.Description == "" {
		result.Description = cand.Description
	}
	if result.CoverURL == "" {
		result.CoverURL = cand.CoverURL
	}
	result.Source = cand.Source
	result.Confidence = score
}
