// Package stats computes per-user usage statistics from the execution log and
// the star ledger. Everything here is read-only.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/codecraft/internal/apperror"
	"github.com/sakif/codecraft/internal/model"
	"github.com/sakif/codecraft/internal/repository"
)

// None is reported for a favorite or most-starred language when there is
// nothing to count.
const None = "N/A"

// Window is the look-back period for Stats.Last24Hours.
const Window = 24 * time.Hour

// Stats is the aggregate returned to the profile page.
type Stats struct {
	TotalExecutions     int            `json:"totalExecutions"`
	LanguagesCount      int            `json:"languagesCount"`
	Languages           []string       `json:"languages"`
	Last24Hours         int            `json:"last24Hours"`
	FavoriteLanguage    string         `json:"favoriteLanguage"`
	LanguageStats       map[string]int `json:"languageStats"`
	MostStarredLanguage string         `json:"mostStarredLanguage"`
}

// Aggregator reads executions, stars and snippets to build Stats.
type Aggregator struct {
	execs    repository.ExecutionRepository
	stars    repository.StarRepository
	snippets repository.SnippetRepository
	logger   *slog.Logger
	now      func() time.Time
}

func NewAggregator(execs repository.ExecutionRepository, stars repository.StarRepository, snippets repository.SnippetRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		execs:    execs,
		stars:    stars,
		snippets: snippets,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock used for the 24h window.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Stats aggregates userID's history. Stars pointing at snippets that no
// longer exist are skipped.
func (a *Aggregator) Stats(ctx context.Context, userID string) (*Stats, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user id is required")
	}

	execs, err := a.execs.ListAllExecutions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats: loading executions for %s: %w", userID, err)
	}
	stars, err := a.stars.ListStarsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stats: loading stars for %s: %w", userID, err)
	}

	starred := newHistogram()
	for _, star := range stars {
		snippet, err := a.snippets.GetSnippetByID(ctx, star.SnippetID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				a.logger.Debug("skipping star on missing snippet",
					slog.String("user_id", userID),
					slog.String("snippet_id", star.SnippetID),
				)
				continue
			}
			return nil, fmt.Errorf("stats: resolving starred snippet %s: %w", star.SnippetID, err)
		}
		starred.add(snippet.Language)
	}

	return summarize(execs, starred, a.now()), nil
}

func summarize(execs []model.Execution, starred *histogram, now time.Time) *Stats {
	langs := newHistogram()
	recent := 0
	cutoff := now.Add(-Window)
	for _, e := range execs {
		langs.add(e.Language)
		if e.CreatedAt.After(cutoff) {
			recent++
		}
	}

	return &Stats{
		TotalExecutions:     len(execs),
		LanguagesCount:      len(langs.order),
		Languages:           langs.order,
		Last24Hours:         recent,
		FavoriteLanguage:    langs.top(),
		LanguageStats:       langs.counts,
		MostStarredLanguage: starred.top(),
	}
}

// histogram counts keys and remembers the order each key was first seen.
type histogram struct {
	order  []string
	counts map[string]int
}

func newHistogram() *histogram {
	return &histogram{order: []string{}, counts: map[string]int{}}
}

func (h *histogram) add(key string) {
	if _, ok := h.counts[key]; !ok {
		h.order = append(h.order, key)
	}
	h.counts[key]++
}

// top returns the most frequent key. Ties go to the key seen first.
func (h *histogram) top() string {
	best, bestN := None, 0
	for _, k := range h.order {
		if n := h.counts[k]; n > bestN {
			best, bestN = k, n
		}
	}
	return best
}
