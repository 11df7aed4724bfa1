package pagination

import (
	"fmt"
	"slices"
	"strings"
)

// Sorter sorts items of type T by named fields.
type Sorter[T any] struct {
	fields map[string]func(a, b T) int
}

// NewSorter creates a Sorter over the given field comparators.
func NewSorter[T any](fields map[string]func(a, b T) int) *Sorter[T] {
	return &Sorter[T]{fields: fields}
}

// IsValidField checks if the field is valid for sorting.
func (s *Sorter[T]) IsValidField(field string) bool {
	_, ok := s.fields[field]
	return ok
}

// GetValidFields returns all valid sort fields in a stable order.
func (s *Sorter[T]) GetValidFields() []string {
	fields := make([]string, 0, len(s.fields))
	for field := range s.fields {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}

// Validate reports an unknown field, listing the valid ones. An empty field
// is valid and keeps the input order.
func (s *Sorter[T]) Validate(field string) error {
	if field == "" || s.IsValidField(field) {
		return nil
	}
	return fmt.Errorf("%w %q, valid fields: %s", ErrInvalidSortField, field,
		strings.Join(s.GetValidFields(), ", "))
}

// Sort returns a sorted copy of items. Equal items keep their order, and an
// empty or unknown field returns the items unchanged.
func (s *Sorter[T]) Sort(items []T, field, order string) []T {
	cmp, ok := s.fields[field]
	if !ok {
		return items
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		if order == SortOrderDesc {
			return cmp(b, a)
		}
		return cmp(a, b)
	})
	return sorted
}

// Page validates p, then sorts and pages items.
func (s *Sorter[T]) Page(items []T, p Params) ([]T, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.Validate(p.SortField); err != nil {
		return nil, err
	}
	return Apply(s.Sort(items, p.SortField, p.SortOrder), p), nil
}
