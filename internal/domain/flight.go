package domain

import "time"

// Flight is a recurring scheduled route. DepTime and ArrTime are
// time-of-day values formatted as HH:MM.
type Flight struct {
	ID             int64
	FlightCode     string
	Airline        string
	AirlineID      *int64
	DepTime        string
	ArrTime        string
	DepCity        string
	ArrCity        string
	DepAirport     string
	ArrAirport     string
	DepAirportCode string
	ArrAirportCode string
}

const DefaultCurrency = "TWD"

// Fare is one quote for a flight, departure date and cabin class.
type Fare struct {
	ID           int64
	FlightID     int64
	DepDate      time.Time
	ArrDate      time.Time
	CabinClass   string
	AircraftType string
	Price        Money
	RecPrice     Money
	Currency     string
}
