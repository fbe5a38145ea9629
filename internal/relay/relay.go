package relay

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/serprelay/internal/assemble"
	"github.com/hyperifyio/serprelay/internal/metrics"
	"github.com/hyperifyio/serprelay/internal/search"
)

// DefaultSearchNum is how many candidates are requested from the provider.
const DefaultSearchNum = 50

// Service turns a free-text query into enriched sources.
type Service struct {
	Provider  search.Provider
	Assembler *assemble.Assembler
	// SearchNum is the provider limit. Zero means DefaultSearchNum.
	SearchNum int
}

// Sources runs search then the validate+scrape pass. Only a provider failure
// is returned as an error; candidate failures shrink the result instead.
func (s *Service) Sources(ctx context.Context, query string) ([]assemble.Source, error) {
	query = strings.TrimSpace(query)
	if s.Provider == nil {
		return nil, fmt.Errorf("search: %w", search.ErrMissingAPIKey)
	}
	num := s.SearchNum
	if num <= 0 {
		num = DefaultSearchNum
	}
	candidates, err := s.Provider.Search(ctx, query, num)
	if err != nil {
		metrics.RecordSearch(s.Provider.Name(), "error")
		return nil, fmt.Errorf("search %s: %w", s.Provider.Name(), err)
	}
	metrics.RecordSearch(s.Provider.Name(), "ok")
	log.Debug().Str("query", query).Str("provider", s.Provider.Name()).Int("candidates", len(candidates)).Msg("search complete")

	return s.Assembler.Assemble(ctx, candidates), nil
}
