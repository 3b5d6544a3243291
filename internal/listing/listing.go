// Package listing turns list-endpoint query parameters into SQL predicates.
// Each resource declares its filterable, searchable and orderable columns as
// data; the shape of the declaration is identical across resources so the
// parsing and SQL generation live in one place.
package listing

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Spec whitelists the fields a resource exposes to the list pipeline. Map
// keys are query parameter names, values are SQL column expressions.
type Spec struct {
	// Filters are exact-match predicates, AND-combined.
	Filters map[string]string
	// Search columns are matched with case-insensitive substring, OR-combined.
	Search []string
	// Order maps the values accepted by the "ordering" parameter.
	Order map[string]string
	// Default is the fixed fallback order, also appended as tie-breaker.
	Default []Term
}

// Term is one ORDER BY expression.
type Term struct {
	Column string
	Desc   bool
}

// Filter is one exact-match predicate.
type Filter struct {
	Column string
	Value  string
}

// Criteria is the parsed, whitelist-checked form of a list request.
type Criteria struct {
	Filters []Filter
	Search  string
	Order   []Term

	searchColumns []string
	defaults      []Term
}

// Parse extracts filter, search and ordering parameters from a query string.
// Parameters outside the whitelist are ignored, as is an ordering value the
// spec does not name.
func Parse(values url.Values, spec Spec) Criteria {
	c := Criteria{
		searchColumns: spec.Search,
		defaults:      spec.Default,
	}

	params := make([]string, 0, len(spec.Filters))
	for param := range spec.Filters {
		params = append(params, param)
	}
	sort.Strings(params)

	for _, param := range params {
		if v := values.Get(param); v != "" {
			c.Filters = append(c.Filters, Filter{Column: spec.Filters[param], Value: v})
		}
	}

	c.Search = values.Get("search")

	if ordering := values.Get("ordering"); ordering != "" {
		desc := strings.HasPrefix(ordering, "-")
		name := strings.TrimPrefix(ordering, "-")
		if column, ok := spec.Order[name]; ok {
			c.Order = append(c.Order, Term{Column: column, Desc: desc})
		}
	}

	return c
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Where renders the criteria as a WHERE clause with positional arguments
// starting at argn. Returns an empty clause when nothing is constrained.
func (c Criteria) Where(argn int) (string, []any, int) {
	var clauses []string
	var args []any

	for _, f := range c.Filters {
		clauses = append(clauses, fmt.Sprintf("%s = $%d", f.Column, argn))
		args = append(args, f.Value)
		argn++
	}

	if c.Search != "" && len(c.searchColumns) > 0 {
		// The search term is matched literally, so LIKE metacharacters in it
		// are escaped before wrapping in wildcards.
		pattern := "%" + likeEscaper.Replace(c.Search) + "%"

		var ors []string
		for _, column := range c.searchColumns {
			ors = append(ors, fmt.Sprintf("%s ILIKE $%d", column, argn))
			args = append(args, pattern)
			argn++
		}
		clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
	}

	if len(clauses) == 0 {
		return "", nil, argn
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, argn
}

// OrderBy renders the ORDER BY clause. The default order is always appended
// after any requested ordering so ties break deterministically.
func (c Criteria) OrderBy() string {
	seen := make(map[string]bool)
	var parts []string

	appendTerm := func(t Term) {
		if seen[t.Column] {
			return
		}
		seen[t.Column] = true
		if t.Desc {
			parts = append(parts, t.Column+" DESC")
		} else {
			parts = append(parts, t.Column)
		}
	}

	for _, t := range c.Order {
		appendTerm(t)
	}
	for _, t := range c.defaults {
		appendTerm(t)
	}

	if len(parts) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
