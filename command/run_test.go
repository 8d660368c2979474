package command

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kferrors "github.com/grovetools/keyflow/errors"
)

func TestRunCapturesStdout(t *testing.T) {
	out, err := Run(context.Background(), &RealExecutor{}, Spec{Name: "sh", Args: []string{"-c", "echo hello"}})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestRunPassesStdin(t *testing.T) {
	out, err := Run(context.Background(), &RealExecutor{}, Spec{Name: "cat", Stdin: "from stdin"})
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)
}

func TestRunExitCode(t *testing.T) {
	res, err := RunResult(context.Background(), &RealExecutor{}, Spec{Name: "sh", Args: []string{"-c", "echo oops >&2; exit 3"}})
	require.Error(t, err)
	assert.True(t, kferrors.Is(err, kferrors.ErrCodeCommandFailed))
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops", strings.TrimSpace(res.Stderr))

	var kerr *kferrors.KeyflowError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "oops", kerr.Details["stderr"])
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), &RealExecutor{}, Spec{Name: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	var kerr *kferrors.KeyflowError
	require.ErrorAs(t, err, &kerr)
	assert.Contains(t, kerr.Details, "timeout")
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{max: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcd", b.String())
}

func TestFakeExecutor(t *testing.T) {
	fake := &FakeExecutor{Respond: func(inv Invocation) string {
		if inv.Name == "osascript" {
			return "echo com.apple.finder"
		}
		return "exit 1"
	}}

	out, err := Run(context.Background(), fake, Spec{Name: "osascript", Args: []string{"-e", "x"}})
	require.NoError(t, err)
	assert.Equal(t, "com.apple.finder", out)

	_, err = Run(context.Background(), fake, Spec{Name: "open", Args: []string{"-b", "x"}})
	assert.Error(t, err)

	calls := fake.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "osascript -e x", calls[0].String())
}

func TestRealExecutorEnv(t *testing.T) {
	ex := &RealExecutor{Env: []string{"KEYFLOW_DAEMON=1"}}
	out, err := Run(context.Background(), ex, Spec{Name: "sh", Args: []string{"-c", "echo $KEYFLOW_DAEMON-$EXTRA"}, Env: []string{"EXTRA=x"}})
	require.NoError(t, err)
	assert.Equal(t, "1-x", out)
}

func TestFakeExecutorLookPath(t *testing.T) {
	fake := &FakeExecutor{Missing: []string{"shortcuts"}}
	_, err := fake.LookPath("shortcuts")
	assert.Error(t, err)
	path, err := fake.LookPath("osascript")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "/osascript"))
}
