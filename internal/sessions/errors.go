package sessions

import "fmt"

// ProcessingError indicates a batch-level failure during session
// reconstruction. When it is returned no partial session data has been
// committed for the batch.
type ProcessingError struct {
	Stage string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("session processing failed at %s: %v", e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
