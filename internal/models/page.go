package models

// Page is the offset/limit pagination envelope for list endpoints.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Pages int `json:"pages"`
}

// NewPage builds a page envelope, computing Pages as ceil(total/size).
func NewPage[T any](items []T, total, page, size int) Page[T] {
	pages := 1
	if size > 0 {
		pages = (total + size - 1) / size
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Size: size, Pages: pages}
}
