package models

// Page is one server-ordered slice of a result set. Number is zero-based and
// 0 <= Number < TotalPages whenever TotalElements > 0.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

func (p *Page[T]) Empty() bool {
	return p == nil || len(p.Content) == 0
}

// InRange reports whether n is a page the backend can serve.
func (p *Page[T]) InRange(n int) bool {
	return p != nil && n >= 0 && n < p.TotalPages
}

func (p *Page[T]) HasPrevious() bool {
	return p != nil && p.InRange(p.Number-1)
}

func (p *Page[T]) HasNext() bool {
	return p != nil && p.InRange(p.Number+1)
}
