package pipeline

import "fmt"

// Stage names, as shown in user-facing error messages.
const (
	StageExtraction = "event extraction"
	StageSchedule   = "schedule generation"
	StageFlashcards = "flashcard generation"
)

// StageError records which stage a failure came from. It unwraps to the
// underlying error so errors.Is on the failure kinds keeps working.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: stage, Err: err}
}
