package native

import (
	"fmt"
	"slices"
)

// CheckLen fails when a checked pointer argument has fewer than want elements.
func CheckLen(param string, n, want int) error {
	if n < want {
		return fmt.Errorf("%s: %w: %d elements, need at least %d", param, ErrCheck, n, want)
	}
	return nil
}

// CheckPtr fails when a required pointer argument is nil.
func CheckPtr[T any](param string, p *T) error {
	if p == nil {
		return fmt.Errorf("%s: %w: nil pointer", param, ErrCheck)
	}
	return nil
}

// OneOf fails unless v is one of the legal values.
func OneOf[E comparable](param string, v E, legal ...E) error {
	if slices.Contains(legal, v) {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", param, ErrInvalidEnum, v)
}

// SliceData returns a pointer to the first element, or nil for an empty slice.
func SliceData[T any](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}
