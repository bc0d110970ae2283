package engine

import "fmt"

// SelectionError reports that the problem set could not be built because a
// judge fetch failed.
type SelectionError struct {
	Err error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("select problems: %v", e.Err)
}

func (e *SelectionError) Unwrap() error {
	return e.Err
}
