package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgx/v5"

	"github.com/Domenick1991/farequote/internal/domain"
	"github.com/Domenick1991/farequote/internal/search"
)

// TableDataVersion holds a single counter bumped by triggers on every
// write to flights or fares.
const TableDataVersion = "quote_data_version"

type FacetRepository interface {
	Facets(ctx context.Context) (*domain.Facets, error)
	Version(ctx context.Context) (int64, error)
}

type PGFacetRepository struct {
	db      DB
	dialect goqu.DialectWrapper
}

func NewFacetRepository(db DB) FacetRepository {
	return &PGFacetRepository{db: db, dialect: goqu.Dialect(dialectPostgres)}
}

// Facets reads the filter choices and price bounds over every stored
// fare and flight. It takes no criteria: the choices must not shrink with
// the active filter.
func (r *PGFacetRepository) Facets(ctx context.Context) (*domain.Facets, error) {
	tx, err := r.db.BeginTx(ctx, readOnlyTx)
	if err != nil {
		return nil, fmt.Errorf("begin facets tx: %w", err)
	}
	defer tx.Rollback(ctx)

	f := &domain.Facets{}
	if f.Version, err = r.version(ctx, tx); err != nil {
		return nil, err
	}
	textFacets := []struct {
		table string
		col   string
		dst   *[]string
	}{
		{search.TableFlights, "dep_airport_code", &f.DepAirportCodes},
		{search.TableFlights, "arr_airport_code", &f.ArrAirportCodes},
		{search.TableFlights, "dep_city", &f.DepCities},
		{search.TableFlights, "arr_city", &f.ArrCities},
		{search.TableFlights, "airline", &f.Airlines},
		{search.TableFares, "cabin_class", &f.CabinClasses},
	}
	for _, tf := range textFacets {
		values, err := r.distinctText(ctx, tx, tf.table, tf.col)
		if err != nil {
			return nil, err
		}
		*tf.dst = values
	}

	if f.DepDates, err = r.distinctDates(ctx, tx); err != nil {
		return nil, err
	}
	if f.PriceMin, f.PriceMax, err = r.priceBounds(ctx, tx); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit facets tx: %w", err)
	}
	return f, nil
}

// Version reads the current data version. It is one primary-key row, cheap
// enough to check on every request.
func (r *PGFacetRepository) Version(ctx context.Context) (int64, error) {
	return r.version(ctx, r.db)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGFacetRepository) version(ctx context.Context, q rowQuerier) (int64, error) {
	query, args, err := r.dialect.From(TableDataVersion).
		Select(goqu.COALESCE(goqu.MAX("version"), 0)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build data version query: %w", err)
	}

	var v int64
	if err := q.QueryRow(ctx, query, args...).Scan(&v); err != nil {
		return 0, fmt.Errorf("query data version: %w", err)
	}
	return v, nil
}

func (r *PGFacetRepository) distinctText(ctx context.Context, tx pgx.Tx, table, col string) ([]string, error) {
	query, args, err := r.dialect.From(table).
		Select(goqu.C(col)).
		Distinct().
		Where(goqu.C(col).IsNotNull(), goqu.C(col).Neq("")).
		Order(goqu.C(col).Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s.%s facet query: %w", table, col, err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s.%s facet: %w", table, col, err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan %s.%s facet: %w", table, col, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *PGFacetRepository) distinctDates(ctx context.Context, tx pgx.Tx) ([]time.Time, error) {
	query, args, err := r.dialect.From(search.TableFares).
		Select(goqu.C("dep_date")).
		Distinct().
		Order(goqu.C("dep_date").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build date facet query: %w", err)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query date facet: %w", err)
	}
	defer rows.Close()

	dates := make([]time.Time, 0)
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date facet: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// priceBounds returns 0/0 when no fares exist.
func (r *PGFacetRepository) priceBounds(ctx context.Context, tx pgx.Tx) (domain.Money, domain.Money, error) {
	query, args, err := r.dialect.From(search.TableFares).
		Select(
			goqu.COALESCE(goqu.MIN("price_cents"), 0),
			goqu.COALESCE(goqu.MAX("price_cents"), 0),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, 0, fmt.Errorf("build price bounds query: %w", err)
	}

	var lo, hi int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&lo, &hi); err != nil {
		return 0, 0, fmt.Errorf("query price bounds: %w", err)
	}
	return domain.Money(lo), domain.Money(hi), nil
}

var _ FacetRepository = (*PGFacetRepository)(nil)
