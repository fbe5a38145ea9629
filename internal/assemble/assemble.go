package assemble

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/serprelay/internal/metrics"
	"github.com/hyperifyio/serprelay/internal/search"
)

// DefaultMaxSources caps the number of sources returned for one query.
const DefaultMaxSources = 10

// Source is a candidate that survived validation together with its excerpt.
type Source struct {
	search.Candidate
	SearchResults string `json:"searchResults"`
}

// Validator reports whether an image URL is reachable. *linkcheck.Validator satisfies it.
type Validator interface {
	Validate(ctx context.Context, url string) bool
}

// Scraper returns a page excerpt or "" on failure. *extract.Scraper satisfies it.
type Scraper interface {
	Scrape(ctx context.Context, url string) string
}

// Outcome tags how one candidate fared.
type Outcome string

const (
	OutcomeKept        Outcome = "kept"
	OutcomeUnreachable Outcome = "unreachable"
	OutcomeEmpty       Outcome = "empty"
)

// Assembler validates and scrapes all candidates concurrently and keeps the
// first MaxSources survivors in input order.
type Assembler struct {
	Validator Validator
	Scraper   Scraper
	// MaxSources bounds the result. Zero means DefaultMaxSources.
	MaxSources int
	// MaxConcurrent limits in-flight candidates. Zero means all at once.
	MaxConcurrent int
	// Limiter, when set, paces every outbound probe and page fetch.
	Limiter *rate.Limiter
}

type slot struct {
	outcome Outcome
	excerpt string
}

// Assemble never fails: candidates whose image is unreachable or whose page
// yields no text are dropped. The returned slice is never nil.
func (a *Assembler) Assemble(ctx context.Context, candidates []search.Candidate) []Source {
	start := time.Now()
	slots := make([]slot, len(candidates))

	var g errgroup.Group
	if a.MaxConcurrent > 0 {
		g.SetLimit(a.MaxConcurrent)
	}
	for i := range candidates {
		g.Go(func() error {
			slots[i] = a.process(ctx, candidates[i])
			return nil
		})
	}
	_ = g.Wait()

	max := a.MaxSources
	if max <= 0 {
		max = DefaultMaxSources
	}
	out := make([]Source, 0, max)
	counts := map[Outcome]int{}
	for i, s := range slots {
		counts[s.outcome]++
		metrics.RecordCandidate(string(s.outcome))
		if s.outcome != OutcomeKept || len(out) >= max {
			continue
		}
		out = append(out, Source{Candidate: candidates[i], SearchResults: s.excerpt})
	}

	elapsed := time.Since(start)
	metrics.RecordPipeline(elapsed.Seconds())
	log.Debug().
		Int("candidates", len(candidates)).
		Int("kept", counts[OutcomeKept]).
		Int("unreachable", counts[OutcomeUnreachable]).
		Int("empty", counts[OutcomeEmpty]).
		Int("returned", len(out)).
		Dur("elapsed", elapsed).
		Msg("sources assembled")
	return out
}

func (a *Assembler) process(ctx context.Context, c search.Candidate) slot {
	if err := a.wait(ctx); err != nil {
		return slot{outcome: OutcomeUnreachable}
	}
	if !a.Validator.Validate(ctx, c.Image) {
		return slot{outcome: OutcomeUnreachable}
	}
	if err := a.wait(ctx); err != nil {
		return slot{outcome: OutcomeEmpty}
	}
	excerpt := a.Scraper.Scrape(ctx, c.Link)
	if excerpt == "" {
		return slot{outcome: OutcomeEmpty}
	}
	return slot{outcome: OutcomeKept, excerpt: excerpt}
}

func (a *Assembler) wait(ctx context.Context) error {
	if a.Limiter == nil {
		return nil
	}
	return a.Limiter.Wait(ctx)
}
