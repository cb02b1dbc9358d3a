package handler

import (
	"net/url"
	"strconv"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page is the window GET /admins reads. Out-of-range values are clamped
// rather than rejected; the list response echoes the applied window.
type Page struct {
	Limit  int
	Offset int
}

func pageFromQuery(q url.Values) Page {
	p := Page{Limit: defaultPageSize}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = min(n, maxPageSize)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		p.Offset = n
	}
	return p
}
