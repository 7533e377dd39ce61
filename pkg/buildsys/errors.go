package buildsys

import (
	"fmt"
	"os/exec"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/interp"
)

// Exit codes which aren't propagated from a subprocess
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Step identifies a pipeline stage
type Step string

const (
	StepToolchain Step = "toolchain"
	StepLocate    Step = "locate"
	StepClean     Step = "clean"
	StepBuild     Step = "build"
	StepCopy      Step = "copy"
)

// StepError terminates a pipeline. Message is the single line shown to the user and Code becomes
// the process exit code.
type StepError struct {
	Step    Step
	Code    int
	Message string
	Err     error
}

var _ error = (*StepError)(nil)

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (exit code %d): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (exit code %d)", e.Message, e.Code)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the process exit code from err. nil maps to 0, a StepError to its code,
// a shell exit status to that status and everything else to 1.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var stepErr *StepError
	if eris.As(err, &stepErr) {
		return stepErr.Code
	}

	return statusOf(err)
}

// statusOf returns the status code reported by a command runner or an exec.Cmd
func statusOf(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if status, ok := interp.IsExitStatus(err); ok {
		if status == 0 {
			return ExitFailure
		}
		return int(status)
	}

	var exitErr *exec.ExitError
	if eris.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	return ExitFailure
}
