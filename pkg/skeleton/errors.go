package skeleton

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat reports binary layout assumptions that did not hold:
	// a marker was not found or a computed region is out of bounds.
	ErrFormat = errors.New("format error")

	// ErrNotFound reports an expected file or mapping that is absent.
	ErrNotFound = errors.New("not found")

	// ErrInvariant reports a hard structural assumption that failed,
	// such as the first bone not being named "root".
	ErrInvariant = errors.New("invariant violation")
)

// Formatf returns an error wrapping ErrFormat.
func Formatf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// NotFoundf returns an error wrapping ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invariantf returns an error wrapping ErrInvariant.
func Invariantf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}

// CountMismatch is a non-fatal warning raised when a mapping and a source
// skeleton disagree on bone count. Dropped is the number of source bones
// removed from the tail before remapping.
type CountMismatch struct {
	Mapping int
	Source  int
	Dropped int
}

func (w CountMismatch) Error() string {
	if w.Dropped > 0 {
		return fmt.Sprintf("bone count mismatch: mapping has %d bones, skeleton has %d; dropped the last %d bones", w.Mapping, w.Source, w.Dropped)
	}
	return fmt.Sprintf("bone count mismatch: mapping has %d bones, skeleton has %d; unfilled mapping slots remain", w.Mapping, w.Source)
}
