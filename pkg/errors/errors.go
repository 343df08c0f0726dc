package errors

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors ⚙️
	ErrConfiguration = errors.New("❌ invalid configuration")
	ErrInvalidRule   = errors.New("❌ malformed copy rule")
	ErrRuleUnmatched = errors.New("❌ copy rule matched no files")

	// Source errors 📂
	ErrSourceNotFound   = errors.New("❌ source file not found")
	ErrSourceUnreadable = errors.New("❌ source file unreadable")

	// Archive errors 📦
	ErrEncoding = errors.New("❌ archive encoding failed")

	// External step errors 🚀
	ErrExternalStep = errors.New("❌ external step failed")
)

// StepError reports a failed external build, test or script step together
// with the exit signal the subprocess returned.
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%v: step %q exited with code %d", ErrExternalStep, e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrExternalStep) match any StepError.
func (e *StepError) Is(target error) bool {
	return target == ErrExternalStep
}
