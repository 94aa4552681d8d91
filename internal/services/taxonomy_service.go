package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"

	"ledger/internal/cache"
	"ledger/internal/ports"
)

const taxonomyKey = "categories"

// TaxonomyService returns the known categories: the optional seed file
// merged with what has been recorded, deduplicated and sorted. Results are
// cached until the next write calls Invalidate.
type TaxonomyService struct {
	reader   ports.TaxonomyReader
	seedFile string
	cache    cache.Cache[[]string]
	logger   *slog.Logger

	// mu orders Invalidate against cache fills; gen counts invalidations so
	// a load that raced with a write is not cached.
	mu  sync.Mutex
	gen uint64
}

func NewTaxonomyService(reader ports.TaxonomyReader, seedFile string, c cache.Cache[[]string], logger *slog.Logger) *TaxonomyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxonomyService{
		reader:   reader,
		seedFile: seedFile,
		cache:    c,
		logger:   logger,
	}
}

// ListCategories implements ports.TaxonomyReader
func (s *TaxonomyService) ListCategories(ctx context.Context) ([]string, error) {
	if s.cache != nil {
		if cats, ok := s.cache.Get(taxonomyKey); ok {
			return cats, nil
		}
	}

	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	recorded, err := s.reader.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recorded categories: %w", err)
	}

	cats := mergeCategories(s.loadSeeds(ctx), recorded)
	if s.cache != nil {
		s.mu.Lock()
		if s.gen == gen {
			s.cache.Set(taxonomyKey, cats)
		}
		s.mu.Unlock()
	}
	return cats, nil
}

// Invalidate drops the cached taxonomy.
func (s *TaxonomyService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cache != nil {
		s.cache.Purge()
	}
}

func (s *TaxonomyService) loadSeeds(ctx context.Context) []string {
	if s.seedFile == "" {
		return nil
	}

	data, err := os.ReadFile(s.seedFile)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.DebugContext(ctx, "No categories seed file", "component", "expense", "path", s.seedFile)
		return nil
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Cannot read categories seed file", "component", "expense", "path", s.seedFile, "error", err)
		return nil
	}

	var seeds []string
	if err := json.Unmarshal(data, &seeds); err != nil {
		s.logger.WarnContext(ctx, "Invalid categories seed file, expected a JSON array of strings",
			"component", "expense", "path", s.seedFile, "error", err)
		return nil
	}
	return seeds
}

// mergeCategories returns the sorted union of both lists without blanks.
func mergeCategories(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, list := range lists {
		for _, c := range list {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}
