package pipeline

import "fmt"

// StageError is the single aggregate failure of a run. It names the stage
// that failed; Err carries one of the failure kinds.
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("pipeline failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
