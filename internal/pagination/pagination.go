// Package pagination wraps ordered result sequences into the page envelope
// used by every list endpoint.
package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	// DefaultPageSize is used when the client does not send page_size.
	DefaultPageSize = 6
	// MaxPageSize caps client-requested page sizes.
	MaxPageSize = 100
)

// ErrPageOutOfRange is returned when the requested page number exceeds the
// number of available pages.
var ErrPageOutOfRange = errors.New("page out of range")

// Params are the parsed paging parameters of a list request.
type Params struct {
	Page     int
	PageSize int
}

func (p Params) Limit() int  { return p.PageSize }
func (p Params) Offset() int { return (p.Page - 1) * p.PageSize }

// ParseParams reads page and page_size from the query string. Invalid values
// fall back to defaults and page_size is clamped to MaxPageSize.
func ParseParams(values url.Values) Params {
	page, _ := strconv.Atoi(values.Get("page"))
	if page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(values.Get("page_size"))
	if err != nil || pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return Params{Page: page, PageSize: pageSize}
}

// Page is the envelope returned by list endpoints.
type Page struct {
	TotalRecords int         `json:"total_records"`
	TotalPages   int         `json:"total_pages"`
	CurrentPage  int         `json:"current_page"`
	Next         *string     `json:"next"`
	Previous     *string     `json:"previous"`
	Results      interface{} `json:"results"`
}

// NewPage builds the envelope for one page of results. An empty result set
// still has one (empty) page; any page number beyond the last one is
// ErrPageOutOfRange.
func NewPage(r *http.Request, p Params, total int, results interface{}) (Page, error) {
	totalPages := (total + p.PageSize - 1) / p.PageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if p.Page > totalPages {
		return Page{}, ErrPageOutOfRange
	}

	page := Page{
		TotalRecords: total,
		TotalPages:   totalPages,
		CurrentPage:  p.Page,
		Results:      results,
	}

	if p.Page < totalPages {
		next := pageLink(r, p.Page+1)
		page.Next = &next
	}
	if p.Page > 1 {
		previous := pageLink(r, p.Page-1)
		page.Previous = &previous
	}

	return page, nil
}

func pageLink(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}

	query := r.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	link := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
