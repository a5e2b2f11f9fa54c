package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup misses. Callers that treat absence as
// fatal should wrap it with context; callers that treat it as "no data" should
// test with errors.Is.
var ErrNotFound = errors.New("not found")

func notFound(entity, key string) error {
	return fmt.Errorf("%s %q: %w", entity, key, ErrNotFound)
}
