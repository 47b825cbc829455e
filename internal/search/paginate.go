package search

const DefaultPageSize = 20

// NumPages never returns less than 1: an empty result still has one
// (empty) page.
func NumPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage pulls page into [1, NumPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	last := NumPages(total, pageSize)
	switch {
	case page < 1:
		return 1
	case page > last:
		return last
	default:
		return page
	}
}

func Offset(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}
