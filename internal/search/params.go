package search

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/farequote/internal/domain"
)

const (
	ParamKeyword       = "q"
	ParamDepAirport    = "dep_airport"
	ParamArrAirport    = "arr_airport"
	ParamDepCity       = "dep_city"
	ParamArrCity       = "arr_city"
	ParamAirline       = "airline"
	ParamCabin         = "cabin"
	ParamDepDate       = "dep_date"
	ParamMinPrice      = "min_price"
	ParamMaxPrice      = "max_price"
	ParamOrderBy       = "order_by"
	ParamPage          = "page"
	ParamRecommendOnly = "recommend_only"

	dateLayout = "2006-01-02"
)

// Largest price bound that still fits in minor units.
const maxPriceUnits = math.MaxInt64 / 100

var recommendTokens = map[string]struct{}{
	"1":    {},
	"true": {},
	"on":   {},
	"yes":  {},
}

// ParseParams turns raw query parameters into search criteria. It never
// fails: each malformed value is dropped on its own and the rest still
// apply.
func ParseParams(values url.Values) (domain.SearchCriteria, domain.FilterEcho) {
	get := func(key string) string {
		return strings.TrimSpace(values.Get(key))
	}

	echo := domain.FilterEcho{
		Q:             get(ParamKeyword),
		DepAirport:    strings.ToUpper(get(ParamDepAirport)),
		ArrAirport:    strings.ToUpper(get(ParamArrAirport)),
		DepCity:       get(ParamDepCity),
		ArrCity:       get(ParamArrCity),
		Airline:       get(ParamAirline),
		Cabin:         get(ParamCabin),
		DepDate:       get(ParamDepDate),
		MinPrice:      get(ParamMinPrice),
		MaxPrice:      get(ParamMaxPrice),
		RecommendOnly: get(ParamRecommendOnly),
		Page:          get(ParamPage),
	}

	sortKey := domain.ParseSortKey(get(ParamOrderBy))
	echo.OrderBy = string(sortKey)

	criteria := domain.SearchCriteria{
		Keyword:        optionalText(echo.Q),
		DepAirportCode: optionalText(echo.DepAirport),
		ArrAirportCode: optionalText(echo.ArrAirport),
		DepCity:        optionalText(echo.DepCity),
		ArrCity:        optionalText(echo.ArrCity),
		Airline:        optionalText(echo.Airline),
		CabinClass:     optionalText(echo.Cabin),
		DepDate:        parseDate(echo.DepDate),
		MinPrice:       parsePriceBound(echo.MinPrice),
		MaxPrice:       parsePriceBound(echo.MaxPrice),
		RecommendOnly:  isRecommendToken(echo.RecommendOnly),
		Sort:           sortKey,
		Page:           parsePage(echo.Page),
	}
	return criteria, echo
}

func optionalText(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	d, err := time.Parse(dateLayout, v)
	if err != nil {
		return nil
	}
	return &d
}

// parsePriceBound accepts only a plain run of ASCII digits. Values too
// large for the store saturate instead of being dropped.
func parsePriceBound(v string) *int64 {
	if v == "" {
		return nil
	}
	for _, r := range v {
		if r < '0' || r > '9' {
			return nil
		}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n > maxPriceUnits {
		n = maxPriceUnits
	}
	return &n
}

func isRecommendToken(v string) bool {
	_, ok := recommendTokens[v]
	return ok
}

// parsePage returns 1 for anything that is not an integer; range clamping
// needs the total count and happens later. Integers outside the int range
// saturate so an oversized page still lands on the last page.
func parsePage(v string) int {
	n, err := strconv.Atoi(v)
	if err == nil {
		return n
	}
	if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(v, "-") {
		return math.MaxInt
	}
	return 1
}
