package htlc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandService(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "running")

	svc := NewCommandService(ServiceCommands{
		Start:  "touch " + marker,
		Stop:   "rm " + marker,
		Status: "if [ -f " + marker + " ]; then echo running; else echo stopped; fi",
	})
	ctx := context.Background()

	out, err := svc.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "stopped", out)

	require.NoError(t, svc.Start(ctx))
	_, err = os.Stat(marker)
	require.NoError(t, err)

	out, err = svc.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "running", out)

	require.NoError(t, svc.Stop(ctx))
	out, err = svc.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, "stopped", out)
}

func TestCommandServiceFailure(t *testing.T) {
	svc := NewCommandService(ServiceCommands{
		Start: "echo 'unit lnd.service not found' >&2; exit 5",
	})

	err := svc.Start(context.Background())
	var cmdErr *CommandFailedError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 5, cmdErr.ExitCode)
	require.True(t, cmdErr.Contains("not found"))
}

func TestCommandServiceNotConfigured(t *testing.T) {
	svc := NewCommandService(ServiceCommands{})

	require.ErrorIs(t, svc.Stop(context.Background()),
		ErrServiceCommandMissing)
}
