package domain

// PageInfo is the pagination metadata attached to every list response.
// Next and Prev are nil when there is no such page.
type PageInfo struct {
	Count int  `json:"count"`
	Pages int  `json:"pages"`
	Next  *int `json:"next"`
	Prev  *int `json:"prev"`
}

// HasNext reports whether another page follows this one
func (p PageInfo) HasNext() bool {
	return p.Next != nil
}

// Page is one page of a paginated list
type Page[T any] struct {
	Info    PageInfo `json:"info"`
	Results []T      `json:"results"`
}

// NextPage returns a pointer to n, for building PageInfo literals
func NextPage(n int) *int {
	return &n
}
