package calendar

// Границы размера страницы.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page — одна страница списка и её положение в нём.
type Page[T any] struct {
	Items      []T
	Page       int // с 1
	PageSize   int
	Total      int
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// Paginate режет items на страницы. Неположительный page становится 1,
// неположительный pageSize становится DefaultPageSize, сверху pageSize
// ограничен MaxPageSize. Страница за концом списка пуста, но номер сохраняет.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	page = max(page, 1)

	total := len(items)
	pages := (total + pageSize - 1) / pageSize
	lo := min((page-1)*pageSize, total)
	hi := min(lo+pageSize, total)

	return Page[T]{
		Items:      items[lo:hi:hi],
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}
