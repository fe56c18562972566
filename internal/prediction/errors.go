package prediction

import "fmt"

// InputError reports a predictions file that could not be read or decoded.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to load predictions %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
