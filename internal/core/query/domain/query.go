// Package domain holds the state a query builder accumulates before it is
// compiled.
package domain

import (
	"maps"
	"slices"
	"sort"
	"strings"
)

// Q maps lookup paths to values. All pairs of one Q must hold.
//
//	Q{"list__name": "colors", "sort__gt": 2}
type Q map[string]any

// Keys returns the lookup paths in sorted order.
func (q Q) Keys() []string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Group is the argument list of one Filter or Exclude call. At least one of
// its members must hold.
type Group []Q

// SortDirection represents sort direction.
type SortDirection string

const (
	// Asc sorts in ascending order.
	Asc SortDirection = "ASC"
	// Desc sorts in descending order.
	Desc SortDirection = "DESC"
)

// ParseOrder splits an order reference like "-created" into its lookup path
// and direction.
func ParseOrder(ref string) (string, SortDirection) {
	if path, ok := strings.CutPrefix(ref, "-"); ok {
		return path, Desc
	}
	return ref, Asc
}

// Expression is a value rendered inline as SQL instead of being bound as a
// parameter, such as NOW() or CURRENT_TIMESTAMP.
type Expression interface {
	SQL() (string, []any)
}

// State is everything a query builder has been told so far.
type State struct {
	Filters    []Group
	Exclusions []Group
	Ordering   []string
	Limit      *int
	Offset     *int
	Related    []string
	Values     []string
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	c := &State{
		Filters:    cloneGroups(s.Filters),
		Exclusions: cloneGroups(s.Exclusions),
		Ordering:   slices.Clone(s.Ordering),
		Related:    slices.Clone(s.Related),
		Values:     slices.Clone(s.Values),
	}
	if s.Limit != nil {
		n := *s.Limit
		c.Limit = &n
	}
	if s.Offset != nil {
		n := *s.Offset
		c.Offset = &n
	}
	return c
}

func cloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = make(Group, len(g))
		for j, q := range g {
			out[i][j] = maps.Clone(q)
		}
	}
	return out
}
