package api

import (
	"time"

	"github.com/Domenick1991/farequote/internal/domain"
)

const dateLayout = "2006-01-02"

type airportResponse struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type quoteRowResponse struct {
	ID            int64           `json:"id"`
	FlightCode    string          `json:"flight_code"`
	Airline       string          `json:"airline"`
	DepTime       string          `json:"dep_time"`
	ArrTime       string          `json:"arr_time"`
	DepCity       string          `json:"dep_city"`
	ArrCity       string          `json:"arr_city"`
	DepAirport    airportResponse `json:"dep_airport"`
	ArrAirport    airportResponse `json:"arr_airport"`
	DepDate       string          `json:"dep_date"`
	ArrDate       string          `json:"arr_date"`
	CabinClass    string          `json:"cabin_class"`
	AircraftType  string          `json:"aircraft_type"`
	Price         domain.Money    `json:"price"`
	RecPrice      domain.Money    `json:"rec_price"`
	Currency      string          `json:"currency"`
	IsRecommended bool            `json:"is_recommended"`
}

type paginationResponse struct {
	Page        int  `json:"page"`
	NumPages    int  `json:"num_pages"`
	PageSize    int  `json:"page_size"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

type searchResponse struct {
	Results           []quoteRowResponse `json:"results"`
	TotalCount        int                `json:"total_count"`
	Pagination        paginationResponse `json:"pagination"`
	Current           domain.FilterEcho  `json:"current"`
	DepAirportChoices []string           `json:"dep_airport_choices"`
	ArrAirportChoices []string           `json:"arr_airport_choices"`
	DepCityChoices    []string           `json:"dep_city_choices"`
	ArrCityChoices    []string           `json:"arr_city_choices"`
	AirlineChoices    []string           `json:"airline_choices"`
	CabinChoices      []string           `json:"cabin_choices"`
	DateChoices       []string           `json:"date_choices"`
	PriceMinSuggest   domain.Money       `json:"price_min_suggest"`
	PriceMaxSuggest   domain.Money       `json:"price_max_suggest"`
	OrderWhitelist    []domain.SortKey   `json:"order_whitelist"`
}

func newSearchResponse(result *domain.SearchResult, echo domain.FilterEcho) searchResponse {
	rows := make([]quoteRowResponse, 0, len(result.Page.Rows))
	for _, q := range result.Page.Rows {
		rows = append(rows, newQuoteRow(q))
	}

	f := result.Facets
	return searchResponse{
		Results:    rows,
		TotalCount: result.Page.TotalCount,
		Pagination: paginationResponse{
			Page:        result.Page.Page,
			NumPages:    result.Page.NumPages,
			PageSize:    result.Page.PageSize,
			HasNext:     result.Page.HasNext(),
			HasPrevious: result.Page.HasPrevious(),
		},
		Current:           echo,
		DepAirportChoices: nonNil(f.DepAirportCodes),
		ArrAirportChoices: nonNil(f.ArrAirportCodes),
		DepCityChoices:    nonNil(f.DepCities),
		ArrCityChoices:    nonNil(f.ArrCities),
		AirlineChoices:    nonNil(f.Airlines),
		CabinChoices:      nonNil(f.CabinClasses),
		DateChoices:       formatDates(f.DepDates),
		PriceMinSuggest:   f.PriceMin,
		PriceMaxSuggest:   f.PriceMax,
		OrderWhitelist:    domain.SortKeys(),
	}
}

func newQuoteRow(q domain.QuoteRow) quoteRowResponse {
	return quoteRowResponse{
		ID:            q.Fare.ID,
		FlightCode:    q.Flight.FlightCode,
		Airline:       q.Flight.Airline,
		DepTime:       q.Flight.DepTime,
		ArrTime:       q.Flight.ArrTime,
		DepCity:       q.Flight.DepCity,
		ArrCity:       q.Flight.ArrCity,
		DepAirport:    airportResponse{Name: q.Flight.DepAirport, Code: q.Flight.DepAirportCode},
		ArrAirport:    airportResponse{Name: q.Flight.ArrAirport, Code: q.Flight.ArrAirportCode},
		DepDate:       q.Fare.DepDate.Format(dateLayout),
		ArrDate:       q.Fare.ArrDate.Format(dateLayout),
		CabinClass:    q.Fare.CabinClass,
		AircraftType:  q.Fare.AircraftType,
		Price:         q.Fare.Price,
		RecPrice:      q.Fare.RecPrice,
		Currency:      q.Fare.Currency,
		IsRecommended: q.IsRecommended(),
	}
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
