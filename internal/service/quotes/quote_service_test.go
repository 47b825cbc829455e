package quotes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	facetcache "github.com/Domenick1991/farequote/internal/cache"
	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/Domenick1991/farequote/internal/metrics"
)

type MockFareRepository struct {
	mock.Mock
}

func (m *MockFareRepository) Search(ctx context.Context, criteria domain.SearchCriteria, pageSize int) (*domain.QuotePage, error) {
	args := m.Called(ctx, criteria, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuotePage), args.Error(1)
}

func (m *MockFareRepository) GetByID(ctx context.Context, id int64) (*domain.QuoteRow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuoteRow), args.Error(1)
}

type MockFacetRepository struct {
	mock.Mock
}

func (m *MockFacetRepository) Facets(ctx context.Context) (*domain.Facets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Facets), args.Error(1)
}

func (m *MockFacetRepository) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockFacetCache struct {
	mock.Mock
}

func (m *MockFacetCache) GetFacets(ctx context.Context) (*domain.Facets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Facets), args.Error(1)
}

func (m *MockFacetCache) SetFacets(ctx context.Context, facets *domain.Facets) error {
	args := m.Called(ctx, facets)
	return args.Error(0)
}

func (m *MockFacetCache) InvalidateFacets(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func samplePage() *domain.QuotePage {
	return &domain.QuotePage{
		Rows: []domain.QuoteRow{
			{
				Fare:   domain.Fare{ID: 1, FlightID: 7, CabinClass: "Economy", Price: 300000, RecPrice: 350000},
				Flight: domain.Flight{ID: 7, FlightCode: "CI100"},
			},
		},
		TotalCount: 1,
		Page:       1,
		NumPages:   1,
		PageSize:   20,
	}
}

func sampleFacets() *domain.Facets {
	return &domain.Facets{
		DepAirportCodes: []string{"KHH", "TPE"},
		CabinClasses:    []string{"Business", "Economy"},
		PriceMin:        300000,
		PriceMax:        800000,
		Version:         5,
	}
}

func TestQuoteService_Search_CacheHit(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(5), nil)
	cache.On("GetFacets", mock.Anything).Return(sampleFacets(), nil)

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache))
	result, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Page.TotalCount)
	assert.Equal(t, *sampleFacets(), result.Facets)
	facetRepo.AssertNotCalled(t, "Facets", mock.Anything)
	fares.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestQuoteService_Search_CacheMissStoresFacets(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	criteria := domain.SearchCriteria{Sort: domain.SortPriceAsc, Page: 1}
	facets := sampleFacets()

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(5), nil)
	cache.On("GetFacets", mock.Anything).Return(nil, nil)
	facetRepo.On("Facets", mock.Anything).Return(facets, nil)
	cache.On("SetFacets", mock.Anything, facets).Return(nil)

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache))
	result, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	assert.Equal(t, *facets, result.Facets)
	facetRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestQuoteService_Search_CacheErrorFallsBackToStore(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}
	facets := sampleFacets()

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(5), nil)
	cache.On("GetFacets", mock.Anything).Return(nil, errors.New("redis: connection refused"))
	facetRepo.On("Facets", mock.Anything).Return(facets, nil)
	cache.On("SetFacets", mock.Anything, facets).Return(errors.New("redis: connection refused"))

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache))
	result, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	assert.Equal(t, *facets, result.Facets)
}

func TestQuoteService_Search_StoreChangeVisibleOnNextSearch(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}
	before := &domain.Facets{Airlines: []string{"China Airlines"}, Version: 1}
	after := &domain.Facets{Airlines: []string{"China Airlines", "EVA Air"}, Version: 2}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(1), nil).Twice()
	facetRepo.On("Facets", mock.Anything).Return(before, nil).Once()

	service := NewQuoteService(fares, facetRepo, WithFacetCache(facetcache.NewMemoryCache(5*time.Minute)))

	first, err := service.Search(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, []string{"China Airlines"}, first.Facets.Airlines)

	cached, err := service.Search(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, []string{"China Airlines"}, cached.Facets.Airlines)

	facetRepo.On("Version", mock.Anything).Return(int64(2), nil)
	facetRepo.On("Facets", mock.Anything).Return(after, nil).Once()

	changed, err := service.Search(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, []string{"China Airlines", "EVA Air"}, changed.Facets.Airlines)
	facetRepo.AssertNumberOfCalls(t, "Facets", 2)
}

func TestQuoteService_Search_OutdatedCacheEntryIsReplaced(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}
	outdated := &domain.Facets{Airlines: []string{"China Airlines"}, Version: 4}
	current := sampleFacets()

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(5), nil)
	cache.On("GetFacets", mock.Anything).Return(outdated, nil)
	facetRepo.On("Facets", mock.Anything).Return(current, nil)
	cache.On("SetFacets", mock.Anything, current).Return(nil)

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache))
	result, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	assert.Equal(t, *current, result.Facets)
	cache.AssertExpectations(t)
}

func TestQuoteService_Search_VersionError(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	dbErr := errors.New("connection reset")
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil).Maybe()
	facetRepo.On("Version", mock.Anything).Return(int64(0), dbErr)

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache))
	result, err := service.Search(context.Background(), criteria)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
	cache.AssertNotCalled(t, "GetFacets", mock.Anything)
}

func TestQuoteService_Search_WithoutCache(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Facets", mock.Anything).Return(sampleFacets(), nil)

	service := NewQuoteService(fares, facetRepo)
	result, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	assert.Len(t, result.Page.Rows, 1)
	facetRepo.AssertExpectations(t)
}

func TestQuoteService_Search_PageSizeOption(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 50).Return(samplePage(), nil)
	facetRepo.On("Facets", mock.Anything).Return(sampleFacets(), nil)

	service := NewQuoteService(fares, facetRepo, WithPageSize(50), WithPageSize(0))
	_, err := service.Search(context.Background(), criteria)

	require.NoError(t, err)
	fares.AssertExpectations(t)
}

func TestQuoteService_Search_FacetsIgnoreFilter(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cabin := "Business"
	narrow := domain.SearchCriteria{CabinClass: &cabin, Sort: domain.SortDepDateAsc, Page: 1}
	broad := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, mock.Anything, 20).Return(samplePage(), nil)
	facetRepo.On("Facets", mock.Anything).Return(sampleFacets(), nil)

	service := NewQuoteService(fares, facetRepo)
	narrowResult, err := service.Search(context.Background(), narrow)
	require.NoError(t, err)
	broadResult, err := service.Search(context.Background(), broad)
	require.NoError(t, err)

	assert.Equal(t, broadResult.Facets, narrowResult.Facets)
}

func TestQuoteService_Search_PageError(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	dbErr := errors.New("connection reset")
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(nil, dbErr)
	facetRepo.On("Facets", mock.Anything).Return(sampleFacets(), nil).Maybe()

	service := NewQuoteService(fares, facetRepo)
	result, err := service.Search(context.Background(), criteria)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
}

func TestQuoteService_Search_FacetError(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	dbErr := errors.New("statement timeout")
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil).Maybe()
	facetRepo.On("Facets", mock.Anything).Return(nil, dbErr)

	service := NewQuoteService(fares, facetRepo)
	result, err := service.Search(context.Background(), criteria)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, dbErr)
}

func TestQuoteService_Search_RecordsMetrics(t *testing.T) {
	fares := &MockFareRepository{}
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	reg := metrics.NewRegistry(prometheus.NewRegistry())
	criteria := domain.SearchCriteria{Sort: domain.SortDepDateAsc, Page: 1}

	fares.On("Search", mock.Anything, criteria, 20).Return(samplePage(), nil)
	facetRepo.On("Version", mock.Anything).Return(int64(5), nil)
	cache.On("GetFacets", mock.Anything).Return(nil, nil).Once()
	facetRepo.On("Facets", mock.Anything).Return(sampleFacets(), nil)
	cache.On("SetFacets", mock.Anything, mock.Anything).Return(nil)
	cache.On("GetFacets", mock.Anything).Return(sampleFacets(), nil)

	service := NewQuoteService(fares, facetRepo, WithFacetCache(cache), WithMetrics(reg))
	_, err := service.Search(context.Background(), criteria)
	require.NoError(t, err)
	_, err = service.Search(context.Background(), criteria)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(reg.FacetCacheMisses))
	assert.Equal(t, float64(1), testutil.ToFloat64(reg.FacetCacheHits))
}

func TestQuoteService_GetByID(t *testing.T) {
	fares := &MockFareRepository{}
	row := &samplePage().Rows[0]

	fares.On("GetByID", mock.Anything, int64(1)).Return(row, nil)
	fares.On("GetByID", mock.Anything, int64(2)).Return(nil, domain.ErrFareNotFound)

	service := NewQuoteService(fares, &MockFacetRepository{})

	got, err := service.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "CI100", got.Flight.FlightCode)

	_, err = service.GetByID(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrFareNotFound)
}

func TestQuoteService_RefreshFacets(t *testing.T) {
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}
	facets := sampleFacets()

	facetRepo.On("Facets", mock.Anything).Return(facets, nil)
	cache.On("SetFacets", mock.Anything, facets).Return(nil)

	service := NewQuoteService(&MockFareRepository{}, facetRepo, WithFacetCache(cache))
	got, err := service.RefreshFacets(context.Background())

	require.NoError(t, err)
	assert.Equal(t, facets, got)
	cache.AssertExpectations(t)
}

func TestQuoteService_RefreshFacets_StoreError(t *testing.T) {
	facetRepo := &MockFacetRepository{}
	cache := &MockFacetCache{}

	facetRepo.On("Facets", mock.Anything).Return(nil, errors.New("boom"))

	service := NewQuoteService(&MockFareRepository{}, facetRepo, WithFacetCache(cache))
	_, err := service.RefreshFacets(context.Background())

	assert.Error(t, err)
	cache.AssertNotCalled(t, "SetFacets", mock.Anything, mock.Anything)
}

func TestQuoteService_InvalidateFacets(t *testing.T) {
	cache := &MockFacetCache{}
	cache.On("InvalidateFacets", mock.Anything).Return(nil)

	service := NewQuoteService(&MockFareRepository{}, &MockFacetRepository{}, WithFacetCache(cache))
	require.NoError(t, service.InvalidateFacets(context.Background()))
	cache.AssertExpectations(t)

	noCache := NewQuoteService(&MockFareRepository{}, &MockFacetRepository{})
	assert.NoError(t, noCache.InvalidateFacets(context.Background()))
}
