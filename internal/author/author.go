package author

import (
	"errors"

	"libraryapi/internal/dates"
	"libraryapi/internal/listing"
)

// ErrNotFound is returned when an author is not found.
var ErrNotFound = errors.New("author not found")

// Author represents an author entity. Deleting an author cascades to the
// books referencing it.
type Author struct {
	ID          int64
	FirstName   string
	LastName    string
	Citizenship string
	DateOfBirth *dates.Date
	DateOfDeath *dates.Date
}

// Patch carries the fields of a partial update; nil means unchanged.
type Patch struct {
	FirstName   *string
	LastName    *string
	Citizenship *string
	DateOfBirth *dates.Date
	DateOfDeath *dates.Date
}

// ListSpec whitelists the list-pipeline fields for authors.
var ListSpec = listing.Spec{
	Filters: map[string]string{
		"first_name":  "first_name",
		"last_name":   "last_name",
		"citizenship": "citizenship",
	},
	Search: []string{"first_name", "last_name"},
	Order: map[string]string{
		"first_name": "first_name",
		"last_name":  "last_name",
	},
	Default: []listing.Term{{Column: "last_name"}, {Column: "first_name"}},
}
