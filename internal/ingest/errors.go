package ingest

import "fmt"

// ValidationError indicates the uploaded file as a whole is unusable, such
// as missing required columns. Individual malformed rows never raise it;
// they are skipped and reported in the processing result instead.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload: %s", e.Reason)
}
