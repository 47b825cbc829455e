package domain

import (
	"errors"
	"time"
)

var ErrFareNotFound = errors.New("fare not found")

type SortField int

const (
	SortFieldDepDate SortField = iota
	SortFieldPrice
	SortFieldRecPrice
)

// SortKey is one of the six whitelisted orderings. A leading "-" means
// descending.
type SortKey string

const (
	SortDepDateAsc   SortKey = "depDate"
	SortDepDateDesc  SortKey = "-depDate"
	SortPriceAsc     SortKey = "price"
	SortPriceDesc    SortKey = "-price"
	SortRecPriceAsc  SortKey = "recPrice"
	SortRecPriceDesc SortKey = "-recPrice"

	DefaultSortKey = SortDepDateAsc
)

type sortSpec struct {
	field SortField
	desc  bool
}

var sortSpecs = map[SortKey]sortSpec{
	SortDepDateAsc:   {SortFieldDepDate, false},
	SortDepDateDesc:  {SortFieldDepDate, true},
	SortPriceAsc:     {SortFieldPrice, false},
	SortPriceDesc:    {SortFieldPrice, true},
	SortRecPriceAsc:  {SortFieldRecPrice, false},
	SortRecPriceDesc: {SortFieldRecPrice, true},
}

// SortKeys returns the whitelist in display order.
func SortKeys() []SortKey {
	return []SortKey{
		SortDepDateAsc, SortDepDateDesc,
		SortPriceAsc, SortPriceDesc,
		SortRecPriceAsc, SortRecPriceDesc,
	}
}

// ParseSortKey resolves raw input against the whitelist, falling back to
// DefaultSortKey.
func ParseSortKey(raw string) SortKey {
	if _, ok := sortSpecs[SortKey(raw)]; ok {
		return SortKey(raw)
	}
	return DefaultSortKey
}

func (k SortKey) Field() SortField {
	return sortSpecs[k.resolved()].field
}

func (k SortKey) Descending() bool {
	return sortSpecs[k.resolved()].desc
}

func (k SortKey) resolved() SortKey {
	return ParseSortKey(string(k))
}

// SearchCriteria is the validated filter set. Nil pointers mean the
// filter is not applied.
type SearchCriteria struct {
	Keyword        *string
	DepAirportCode *string
	ArrAirportCode *string
	DepCity        *string
	ArrCity        *string
	Airline        *string
	CabinClass     *string
	DepDate        *time.Time
	// MinPrice and MaxPrice are whole currency units.
	MinPrice      *int64
	MaxPrice      *int64
	RecommendOnly bool
	Sort          SortKey
	Page          int
}

// FilterEcho carries the normalized request values back to the client so
// filter controls can be restored.
type FilterEcho struct {
	Q             string `json:"q"`
	DepAirport    string `json:"dep_airport"`
	ArrAirport    string `json:"arr_airport"`
	DepCity       string `json:"dep_city"`
	ArrCity       string `json:"arr_city"`
	Airline       string `json:"airline"`
	Cabin         string `json:"cabin"`
	DepDate       string `json:"dep_date"`
	MinPrice      string `json:"min_price"`
	MaxPrice      string `json:"max_price"`
	OrderBy       string `json:"order_by"`
	RecommendOnly string `json:"recommend_only"`
	Page          string `json:"page"`
}

// QuoteRow is a fare joined with its flight.
type QuoteRow struct {
	Fare   Fare
	Flight Flight
}

func (r QuoteRow) IsRecommended() bool {
	return r.Fare.Price < r.Fare.RecPrice
}

type QuotePage struct {
	Rows       []QuoteRow
	TotalCount int
	Page       int
	NumPages   int
	PageSize   int
}

func (p QuotePage) HasNext() bool {
	return p.Page < p.NumPages
}

func (p QuotePage) HasPrevious() bool {
	return p.Page > 1
}

// Facets are computed over the whole dataset, never over a filtered subset.
type Facets struct {
	DepAirportCodes []string    `json:"dep_airport_codes"`
	ArrAirportCodes []string    `json:"arr_airport_codes"`
	DepCities       []string    `json:"dep_cities"`
	ArrCities       []string    `json:"arr_cities"`
	Airlines        []string    `json:"airlines"`
	CabinClasses    []string    `json:"cabin_classes"`
	DepDates        []time.Time `json:"dep_dates"`
	PriceMin        Money       `json:"price_min"`
	PriceMax        Money       `json:"price_max"`
	// Version is the store data version the facets were read at. A cached
	// copy is only valid while it matches the current version.
	Version int64 `json:"version"`
}

type SearchResult struct {
	Page   QuotePage
	Facets Facets
}
