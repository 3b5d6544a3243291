package book

import (
	"errors"
	"time"

	"libraryapi/internal/dates"
	"libraryapi/internal/listing"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrAuthorNotFound is returned on a write referencing an author that does
// not exist.
var ErrAuthorNotFound = errors.New("book author not found")

// Book represents a book entity. The author reference is nullable on read
// (a leftover of the schema migration that introduced the authors table) but
// mandatory on write.
type Book struct {
	ID              int64
	Title           string
	AuthorID        *int64
	AuthorName      *string
	PublicationDate dates.Date
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	Title           *string
	AuthorID        *int64
	PublicationDate *dates.Date
}

// ListSpec whitelists the list-pipeline fields for books. Search reaches
// through the author join.
var ListSpec = listing.Spec{
	Filters: map[string]string{
		"title":            "b.title",
		"author":           "b.author_id::text",
		"publication_date": "b.publication_date::text",
	},
	Search: []string{"b.title", "a.last_name", "a.first_name"},
	Order: map[string]string{
		"title":            "b.title",
		"author":           "b.author_id",
		"publication_date": "b.publication_date",
	},
	Default: []listing.Term{{Column: "b.title"}},
}
