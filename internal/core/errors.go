package core

import "fmt"

// NotFoundError reports that the object store has no entry for the
// requested key. It is terminal: no strategies are attempted.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object %q not found", e.Key)
}

// FetchError reports that the object store call itself failed. It is
// terminal and distinct from NotFoundError.
type FetchError struct {
	Key string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch object %q: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
