package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5"

	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/Domenick1991/farequote/internal/search"
)

const dialectPostgres = "postgres"

// DB is the part of *pgxpool.Pool the repositories use.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var readOnlyTx = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

type FareRepository interface {
	Search(ctx context.Context, criteria domain.SearchCriteria, pageSize int) (*domain.QuotePage, error)
	GetByID(ctx context.Context, id int64) (*domain.QuoteRow, error)
}

type PGFareRepository struct {
	db      DB
	dialect goqu.DialectWrapper
}

func NewFareRepository(db DB) FareRepository {
	return &PGFareRepository{db: db, dialect: goqu.Dialect(dialectPostgres)}
}

// Search counts the matching fares, clamps the requested page and reads
// that page, all inside one read-only transaction.
func (r *PGFareRepository) Search(ctx context.Context, criteria domain.SearchCriteria, pageSize int) (*domain.QuotePage, error) {
	if pageSize <= 0 {
		pageSize = search.DefaultPageSize
	}
	filtered := search.Filter(search.From(r.dialect), criteria).Prepared(true)

	countSQL, countArgs, err := filtered.Select(goqu.COUNT(goqu.Star())).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build count query: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return nil, fmt.Errorf("begin search tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var total int64
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count fares: %w", err)
	}

	page := search.ClampPage(criteria.Page, int(total), pageSize)
	result := &domain.QuotePage{
		Rows:       make([]domain.QuoteRow, 0),
		TotalCount: int(total),
		Page:       page,
		NumPages:   search.NumPages(int(total), pageSize),
		PageSize:   pageSize,
	}

	if total > 0 {
		pageSQL, pageArgs, err := filtered.
			Select(quoteColumns()...).
			Order(search.OrderBy(criteria.Sort)...).
			Limit(uint(pageSize)).
			Offset(uint(search.Offset(page, pageSize))).
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build page query: %w", err)
		}

		rows, err := tx.Query(ctx, pageSQL, pageArgs...)
		if err != nil {
			return nil, fmt.Errorf("query fares: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			q, err := scanQuote(rows)
			if err != nil {
				return nil, fmt.Errorf("scan fare: %w", err)
			}
			result.Rows = append(result.Rows, q)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate fares: %w", err)
		}
		rows.Close()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit search tx: %w", err)
	}
	return result, nil
}

func (r *PGFareRepository) GetByID(ctx context.Context, id int64) (*domain.QuoteRow, error) {
	query, args, err := search.From(r.dialect).
		Select(quoteColumns()...).
		Where(goqu.T(search.FareAlias).Col("id").Eq(id)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build fare query: %w", err)
	}

	q, err := scanQuote(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFareNotFound
		}
		return nil, fmt.Errorf("get fare %d: %w", id, err)
	}
	return &q, nil
}

func quoteColumns() []any {
	return []any{
		goqu.I("p.id"),
		goqu.I("p.flight_id"),
		goqu.I("p.dep_date"),
		goqu.I("p.arr_date"),
		goqu.I("p.cabin_class"),
		goqu.I("p.aircraft_type"),
		goqu.I("p.price_cents"),
		goqu.I("p.rec_price_cents"),
		goqu.I("p.currency"),
		goqu.I("t.flight_code"),
		goqu.I("t.airline"),
		goqu.I("t.airline_id"),
		timeOfDay("dep_time"),
		timeOfDay("arr_time"),
		nonNull("dep_city"),
		nonNull("arr_city"),
		goqu.I("t.dep_airport"),
		goqu.I("t.arr_airport"),
		nonNull("dep_airport_code"),
		nonNull("arr_airport_code"),
	}
}

func timeOfDay(col string) exp.AliasedExpression {
	return goqu.L(fmt.Sprintf("to_char(t.%s, 'HH24:MI')", col)).As(col)
}

func nonNull(col string) exp.AliasedExpression {
	return goqu.L(fmt.Sprintf("COALESCE(t.%s, '')", col)).As(col)
}

func scanQuote(row pgx.Row) (domain.QuoteRow, error) {
	var (
		q               domain.QuoteRow
		price, recPrice int64
	)
	err := row.Scan(
		&q.Fare.ID, &q.Fare.FlightID, &q.Fare.DepDate, &q.Fare.ArrDate,
		&q.Fare.CabinClass, &q.Fare.AircraftType, &price, &recPrice, &q.Fare.Currency,
		&q.Flight.FlightCode, &q.Flight.Airline, &q.Flight.AirlineID, &q.Flight.DepTime, &q.Flight.ArrTime,
		&q.Flight.DepCity, &q.Flight.ArrCity, &q.Flight.DepAirport, &q.Flight.ArrAirport,
		&q.Flight.DepAirportCode, &q.Flight.ArrAirportCode,
	)
	if err != nil {
		return domain.QuoteRow{}, err
	}
	q.Fare.Price = domain.Money(price)
	q.Fare.RecPrice = domain.Money(recPrice)
	q.Flight.ID = q.Fare.FlightID
	return q, nil
}

var _ FareRepository = (*PGFareRepository)(nil)
