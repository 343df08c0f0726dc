package bundler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/hashicorp/go-hclog"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
	"github.com/packmule-io/packmule/pkg/utils/shellparse"
)

// StepRunner invokes the external build, test and script steps. Steps run
// strictly sequentially; each one completes (success or failure) before the
// next begins, and the first failure aborts the run.
type StepRunner struct {
	logger hclog.Logger
	stdout io.Writer
	stderr io.Writer
}

// NewStepRunner creates a runner. Subprocess output goes to stdout/stderr;
// nil values default to the process streams.
func NewStepRunner(logger hclog.Logger, stdout, stderr io.Writer) *StepRunner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &StepRunner{logger: logger, stdout: stdout, stderr: stderr}
}

// RunCommand runs one named step from a shell-like command string.
func (r *StepRunner) RunCommand(name, command string) error {
	argv, err := shellparse.Split(command)
	if err != nil {
		return fmt.Errorf("%w: step %q command %q: %v", muleerrors.ErrConfiguration, name, command, err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("%w: step %q has an empty command", muleerrors.ErrConfiguration, name)
	}
	return r.run(name, argv)
}

// RunScript runs one auxiliary script to completion.
func (r *StepRunner) RunScript(path string) error {
	return r.run(path, []string{path})
}

func (r *StepRunner) run(name string, argv []string) error {
	r.logger.Info("🚀 Running external step", "step", name, "command", argv)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		r.logger.Error("❌ External step failed", "step", name, "exit_code", exitCode)
		return &muleerrors.StepError{Step: name, ExitCode: exitCode, Err: err}
	}

	r.logger.Debug("✅ External step finished", "step", name)
	return nil
}
