package search

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Domenick1991/farequote/internal/domain"
)

const (
	TableFares   = "fares"
	TableFlights = "flights"

	FareAlias   = "p"
	FlightAlias = "t"
)

var (
	fareT   = goqu.T(FareAlias)
	flightT = goqu.T(FlightAlias)

	colFareID     = fareT.Col("id")
	colFareFlight = fareT.Col("flight_id")
	colDepDate    = fareT.Col("dep_date")
	colCabinClass = fareT.Col("cabin_class")
	colPrice      = fareT.Col("price_cents")
	colRecPrice   = fareT.Col("rec_price_cents")

	colFlightID       = flightT.Col("id")
	colFlightCode     = flightT.Col("flight_code")
	colAirline        = flightT.Col("airline")
	colDepCity        = flightT.Col("dep_city")
	colArrCity        = flightT.Col("arr_city")
	colDepAirport     = flightT.Col("dep_airport")
	colArrAirport     = flightT.Col("arr_airport")
	colDepAirportCode = flightT.Col("dep_airport_code")
	colArrAirportCode = flightT.Col("arr_airport_code")
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// From returns the fares ⋈ flights dataset every quote query starts from.
func From(dialect goqu.DialectWrapper) *goqu.SelectDataset {
	return dialect.
		From(goqu.T(TableFares).As(FareAlias)).
		InnerJoin(goqu.T(TableFlights).As(FlightAlias), goqu.On(colFareFlight.Eq(colFlightID)))
}

// Predicates compiles criteria into conjunctive expressions over the
// fares ⋈ flights join. Absent criteria contribute nothing.
func Predicates(c domain.SearchCriteria) []exp.Expression {
	preds := make([]exp.Expression, 0)

	if c.DepAirportCode != nil {
		preds = append(preds, upper(colDepAirportCode).Eq(strings.ToUpper(*c.DepAirportCode)))
	}
	if c.ArrAirportCode != nil {
		preds = append(preds, upper(colArrAirportCode).Eq(strings.ToUpper(*c.ArrAirportCode)))
	}
	if c.DepCity != nil {
		preds = append(preds, contains(colDepCity, *c.DepCity))
	}
	if c.ArrCity != nil {
		preds = append(preds, contains(colArrCity, *c.ArrCity))
	}
	if c.Airline != nil {
		preds = append(preds, contains(colAirline, *c.Airline))
	}
	if c.CabinClass != nil {
		preds = append(preds, upper(colCabinClass).Eq(strings.ToUpper(*c.CabinClass)))
	}
	if c.DepDate != nil {
		preds = append(preds, colDepDate.Eq(*c.DepDate))
	}
	if c.MinPrice != nil {
		preds = append(preds, colPrice.Gte(int64(domain.MoneyFromUnits(*c.MinPrice))))
	}
	if c.MaxPrice != nil {
		preds = append(preds, colPrice.Lte(int64(domain.MoneyFromUnits(*c.MaxPrice))))
	}
	if c.RecommendOnly {
		preds = append(preds, colPrice.Lt(colRecPrice))
	}
	if c.Keyword != nil {
		kw := *c.Keyword
		preds = append(preds, goqu.Or(
			contains(colFlightCode, kw),
			contains(colDepCity, kw),
			contains(colArrCity, kw),
			contains(colDepAirport, kw),
			contains(colArrAirport, kw),
		))
	}
	return preds
}

// Filter applies the compiled predicates to ds.
func Filter(ds *goqu.SelectDataset, c domain.SearchCriteria) *goqu.SelectDataset {
	preds := Predicates(c)
	if len(preds) == 0 {
		return ds
	}
	return ds.Where(preds...)
}

func contains(col exp.IdentifierExpression, v string) exp.BooleanExpression {
	return col.ILike("%" + likeEscaper.Replace(v) + "%")
}

func upper(col exp.IdentifierExpression) exp.SQLFunctionExpression {
	return goqu.Func("UPPER", col)
}
