package source

import (
	"errors"
	"fmt"

	"github.com/windowsadmins/msiinv/pkg/logging"
)

// EnumerationError is returned when an enumeration fails after it already produced
// items. The registry is assumed corrupt and the run is aborted.
type EnumerationError struct {
	Scope string
	Index int
	Err   error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("enumerating %s failed at index %d: %v", e.Scope, e.Index, e.Err)
}

func (e *EnumerationError) Unwrap() error { return e.Err }

// Enumerate drives a paged enumeration from index 0 until ErrNoMoreItems and returns the
// number of items yielded.
//
// A failure on the very first call means the scope is empty and is not reported.
// A failure after at least one item is returned as *EnumerationError.
// An error returned by yield stops the enumeration and is returned unchanged.
func Enumerate[T any](scope string, next func(index int) (T, error), yield func(T) error) (int, error) {
	for i := 0; ; i++ {
		item, err := next(i)
		if errors.Is(err, ErrNoMoreItems) {
			return i, nil
		}
		if err != nil {
			if i == 0 {
				logging.Debug("Enumeration failed on first call, treating as empty", "scope", scope, "error", err)
				return 0, nil
			}
			return i, &EnumerationError{Scope: scope, Index: i, Err: err}
		}
		if yield != nil {
			if err := yield(item); err != nil {
				return i + 1, err
			}
		}
	}
}

// Collect gathers a whole enumeration into a slice.
func Collect[T any](scope string, next func(index int) (T, error)) ([]T, error) {
	var items []T
	_, err := Enumerate(scope, next, func(item T) error {
		items = append(items, item)
		return nil
	})
	return items, err
}
