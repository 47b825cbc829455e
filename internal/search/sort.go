package search

import (
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/Domenick1991/farequote/internal/domain"
)

var sortColumns = map[domain.SortField]exp.IdentifierExpression{
	domain.SortFieldDepDate:  colDepDate,
	domain.SortFieldPrice:    colPrice,
	domain.SortFieldRecPrice: colRecPrice,
}

// OrderBy maps a sort key to its ORDER BY list. The fare id is always the
// last term so pages are stable across identical requests.
func OrderBy(key domain.SortKey) []exp.OrderedExpression {
	col := sortColumns[key.Field()]
	primary := col.Asc()
	if key.Descending() {
		primary = col.Desc()
	}
	return []exp.OrderedExpression{primary, colFareID.Asc()}
}
