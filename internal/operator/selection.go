// Package operator tracks operator search, pagination and selection for the
// wizard, and provides the data sources that fill it.
package operator

import (
	"context"
	"strings"
)

// Operator is an insurance carrier selectable during the flow.
type Operator struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	ANSCode string   `json:"ans_code" yaml:"ans_code"`
	Plans   []string `json:"plans,omitempty" yaml:"plans,omitempty"`
}

// Page is one page of search results.
type Page struct {
	Items      []Operator
	Page       int
	TotalPages int
	Search     string
}

// Source provides paginated, searchable operators. Pages are 1-based.
type Source interface {
	Fetch(ctx context.Context, page int, search string) (Page, error)
}

// Selection holds the operator list shown to the user and the chosen operator.
//
// The chosen operator is kept as a copy, so it stays resolvable after the list
// is replaced by another page or search.
type Selection struct {
	items      []Operator
	selected   *Operator
	page       int
	totalPages int
	search     string
}

func NewSelection() *Selection {
	return &Selection{page: 1, totalPages: 1}
}

func (s *Selection) Items() []Operator {
	out := make([]Operator, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Selection) Page() int       { return s.page }
func (s *Selection) TotalPages() int { return s.totalPages }
func (s *Selection) Search() string  { return s.search }

// SetSearch changes the search term and goes back to page 1.
func (s *Selection) SetSearch(term string) {
	s.search = strings.TrimSpace(term)
	s.page = 1
	s.totalPages = 1
}

// LoadMore advances to the next page when one exists. The caller fetches it.
func (s *Selection) LoadMore() bool {
	if s.page >= s.totalPages {
		return false
	}
	s.page++
	return true
}

// LoadMoreFailed steps back after the fetch of page failed, so the next
// LoadMore asks for the same page again. Failures for another page or search
// are ignored.
func (s *Selection) LoadMoreFailed(page int, search string) bool {
	if page <= 1 || page != s.page || strings.TrimSpace(search) != s.search {
		return false
	}
	s.page--
	return true
}

// Apply merges a fetched page. Page 1 replaces the list, later pages append.
// Pages that do not match the current page and search are stale and ignored.
func (s *Selection) Apply(p Page) bool {
	if p.Page != s.page || strings.TrimSpace(p.Search) != s.search {
		return false
	}
	if p.Page <= 1 {
		s.items = append([]Operator(nil), p.Items...)
	} else {
		s.items = append(s.items, p.Items...)
	}
	s.totalPages = p.TotalPages
	if s.totalPages < 1 {
		s.totalPages = 1
	}
	return true
}

// Select chooses an operator from the current list.
func (s *Selection) Select(id string) bool {
	for _, op := range s.items {
		if op.ID == id {
			chosen := op
			s.selected = &chosen
			return true
		}
	}
	return false
}

// Selected returns the chosen operator, even if it is no longer listed.
func (s *Selection) Selected() (Operator, bool) {
	if s.selected == nil {
		return Operator{}, false
	}
	return *s.selected, true
}

func (s *Selection) SelectedID() string {
	if s.selected == nil {
		return ""
	}
	return s.selected.ID
}

// Clear drops the selection, the search term and returns to page 1.
func (s *Selection) Clear() {
	s.selected = nil
	s.search = ""
	s.page = 1
	s.totalPages = 1
}
