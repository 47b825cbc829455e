package quotes

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/Domenick1991/farequote/internal/logging"
	"github.com/Domenick1991/farequote/internal/metrics"
	"github.com/Domenick1991/farequote/internal/repository"
	"github.com/Domenick1991/farequote/internal/search"
)

type QuoteUseCase interface {
	Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error)
	GetByID(ctx context.Context, id int64) (*domain.QuoteRow, error)
}

// FacetCache is optional. GetFacets returns nil, nil on a miss.
type FacetCache interface {
	GetFacets(ctx context.Context) (*domain.Facets, error)
	SetFacets(ctx context.Context, facets *domain.Facets) error
	InvalidateFacets(ctx context.Context) error
}

type QuoteService struct {
	fares    repository.FareRepository
	facets   repository.FacetRepository
	cache    FacetCache
	pageSize int
	logger   *zap.SugaredLogger
	metrics  *metrics.Registry
}

type QuoteServiceOption func(*QuoteService)

func WithFacetCache(cache FacetCache) QuoteServiceOption {
	return func(s *QuoteService) {
		s.cache = cache
	}
}

func WithPageSize(size int) QuoteServiceOption {
	return func(s *QuoteService) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

func WithLogger(logger *zap.SugaredLogger) QuoteServiceOption {
	return func(s *QuoteService) {
		s.logger = logger
	}
}

func WithMetrics(reg *metrics.Registry) QuoteServiceOption {
	return func(s *QuoteService) {
		s.metrics = reg
	}
}

func NewQuoteService(fares repository.FareRepository, facets repository.FacetRepository, opts ...QuoteServiceOption) *QuoteService {
	s := &QuoteService{
		fares:    fares,
		facets:   facets,
		pageSize: search.DefaultPageSize,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the filtered page query and the facet query concurrently.
// Either failing fails the whole search.
func (s *QuoteService) Search(ctx context.Context, criteria domain.SearchCriteria) (*domain.SearchResult, error) {
	start := time.Now()

	var (
		page   *domain.QuotePage
		facets *domain.Facets
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		page, err = s.fares.Search(gctx, criteria, s.pageSize)
		return err
	})
	g.Go(func() error {
		var err error
		facets, err = s.loadFacets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		s.metrics.SearchResults.Observe(float64(page.TotalCount))
	}
	return &domain.SearchResult{Page: *page, Facets: *facets}, nil
}

func (s *QuoteService) GetByID(ctx context.Context, id int64) (*domain.QuoteRow, error) {
	return s.fares.GetByID(ctx, id)
}

// RefreshFacets recomputes the facets from the store and stores them in
// the cache when one is configured. The stored copy carries the version it
// was read at, so a late write after a concurrent invalidation is ignored
// by readers once the store moves on.
func (s *QuoteService) RefreshFacets(ctx context.Context) (*domain.Facets, error) {
	facets, err := s.facets.Facets(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFacets(ctx, facets); err != nil {
			s.logger.Warnw("store facets in cache", "error", err)
		}
	}
	return facets, nil
}

func (s *QuoteService) InvalidateFacets(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateFacets(ctx)
}

// loadFacets serves cached facets only when they were read at the current
// data version, so a write to the store is visible on the next search.
// Cache errors fall through to the store.
func (s *QuoteService) loadFacets(ctx context.Context) (*domain.Facets, error) {
	if s.cache == nil {
		return s.facets.Facets(ctx)
	}

	version, err := s.facets.Version(ctx)
	if err != nil {
		return nil, err
	}
	cached, err := s.cache.GetFacets(ctx)
	if err != nil {
		s.logger.Warnw("read facets from cache", "error", err)
	}
	if err == nil && cached != nil && cached.Version == version {
		s.countCache(true)
		return cached, nil
	}
	s.countCache(false)
	return s.RefreshFacets(ctx)
}

func (s *QuoteService) countCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.FacetCacheHits.Inc()
	} else {
		s.metrics.FacetCacheMisses.Inc()
	}
}

var _ QuoteUseCase = (*QuoteService)(nil)
