package bundler

import (
	"bytes"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunCommandSuccess(t *testing.T) {
	skipWithoutShell(t)

	var out bytes.Buffer
	runner := NewStepRunner(nil, &out, &out)

	require.NoError(t, runner.RunCommand("build", `sh -c "echo building"`))
	assert.Contains(t, out.String(), "building")
}

func TestRunCommandFailureCarriesStepAndSignal(t *testing.T) {
	skipWithoutShell(t)

	runner := NewStepRunner(nil, nil, nil)
	err := runner.RunCommand("test", `sh -c "exit 3"`)

	require.ErrorIs(t, err, muleerrors.ErrExternalStep)

	var stepErr *muleerrors.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "test", stepErr.Step)
	assert.Equal(t, 3, stepErr.ExitCode)
}

func TestRunCommandMissingBinary(t *testing.T) {
	runner := NewStepRunner(nil, nil, nil)
	err := runner.RunCommand("build", "definitely-not-a-real-binary-xyz")

	require.ErrorIs(t, err, muleerrors.ErrExternalStep)

	var stepErr *muleerrors.StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, -1, stepErr.ExitCode)
}

func TestRunCommandRejectsMalformedCommand(t *testing.T) {
	runner := NewStepRunner(nil, nil, nil)

	require.ErrorIs(t, runner.RunCommand("build", `sh -c "unterminated`), muleerrors.ErrConfiguration)
	require.ErrorIs(t, runner.RunCommand("build", ""), muleerrors.ErrConfiguration)
}
