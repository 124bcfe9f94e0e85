// Package listview derives the visible page of a list screen from an entity
// collection and the user's search, filter, sort and page choices.
package listview

import "github.com/rpggio/localfirst/internal/domain/entity"

// All disables the category filter.
const All = "all"

// DefaultPageSize is used when neither the state nor the schema sets one.
const DefaultPageSize = 10

// SortKind selects the comparator for a sort key.
type SortKind int

const (
	SortText SortKind = iota
	SortNumber
	SortDate
)

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortKey describes one sortable column.
type SortKey struct {
	Field string
	Kind  SortKind
	// Default direction when the state does not set one.
	Direction Direction
}

// Schema describes how a resource's list screen searches, filters and sorts.
type Schema struct {
	SearchFields  []string
	CategoryField string
	// When true a non-empty search term ignores the category filter.
	SearchBypassesCategory bool
	SortKeys               map[string]SortKey
	DefaultSort            string
	PageSize               int
}

// State is the user-controlled view filter state. It is never persisted.
type State struct {
	Search    string
	Category  string
	SortKey   string
	Direction Direction
	Page      int
	PageSize  int
}

// Page is one computed page plus pagination metadata.
type Page struct {
	Items     []entity.Entity
	Total     int
	Page      int
	PageCount int
	PageSize  int
}

// DefaultState returns the state a screen starts with and returns to on
// "clear filters".
func (s Schema) DefaultState() State {
	st := State{Category: All, SortKey: s.DefaultSort, PageSize: s.PageSize}
	if key, ok := s.SortKeys[s.DefaultSort]; ok {
		st.Direction = key.Direction
	}
	return st
}

// WithSearch sets the search term and resets to the first page.
func (st State) WithSearch(term string) State {
	st.Search = term
	st.Page = 0
	return st
}

// WithCategory sets the category filter and resets to the first page.
func (st State) WithCategory(category string) State {
	if category == "" {
		category = All
	}
	st.Category = category
	st.Page = 0
	return st
}

// WithSort sets the sort key and direction and resets to the first page. An
// empty direction uses the key's default.
func (st State) WithSort(key string, dir Direction) State {
	st.SortKey = key
	st.Direction = dir
	st.Page = 0
	return st
}

// WithPage moves to page n. Compute clamps it.
func (st State) WithPage(n int) State {
	st.Page = n
	return st
}

// Cleared resets everything but the page size.
func (st State) Cleared(s Schema) State {
	cleared := s.DefaultState()
	if st.PageSize > 0 {
		cleared.PageSize = st.PageSize
	}
	return cleared
}
