package harness

import (
	"errors"
	"fmt"
)

// Stage names the step of a case at which provider and reference diverged.
// The zero Stage means the case passed.
type Stage string

const (
	StagePass       Stage = ""
	StageSetup      Stage = "setup"
	StageProvider   Stage = "provider"
	StageReference  Stage = "reference"
	StageLength     Stage = "length"
	StageCompare    Stage = "compare"
	StageRoundTrip  Stage = "roundtrip"
	StageDegenerate Stage = "degenerate"
	StageInput      Stage = "input"
)

var (
	// ErrSetup reports a fixture that could not be allocated or was used
	// after teardown. No check runs once it is returned.
	ErrSetup = errors.New("harness: setup failed")
	// ErrAlreadyRun is returned by a second Run on the same Orchestrator.
	ErrAlreadyRun = errors.New("harness: orchestrator already ran")
)

type CheckError struct {
	Stage Stage
	Msg   string
	Err   error
}

func (e *CheckError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Msg == "" && e.Err == nil:
		return string(e.Stage)
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Stage, e.Msg)
	case e.Msg == "":
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Msg, e.Err)
	}
}

func (e *CheckError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func stageErr(stage Stage, format string, args ...any) *CheckError {
	return &CheckError{Stage: stage, Msg: fmt.Sprintf(format, args...)}
}

// setupErr marks err as a context setup failure so that runCase reports it
// at StageSetup instead of the calling side's stage.
func setupErr(msg string, err error) error {
	return &CheckError{Stage: StageSetup, Msg: msg, Err: err}
}
