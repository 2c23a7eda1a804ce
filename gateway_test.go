package htlc

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFakeCLI writes an executable shell script standing in for lncli.
func writeFakeCLI(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}

	path := filepath.Join(t.TempDir(), "lncli")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestGatewayRunSuccess(t *testing.T) {
	bin := writeFakeCLI(t, `echo '{"synced_to_chain": true}'`)
	gw := NewGateway(GatewayConfig{Binary: bin})

	out, err := gw.Run(context.Background(), "getinfo")
	require.NoError(t, err)
	require.Equal(t, "{\"synced_to_chain\": true}\n", out)
}

func TestGatewayPassesGlobalFlags(t *testing.T) {
	bin := writeFakeCLI(t, `for a in "$@"; do echo "$a"; done`)
	gw := NewGateway(GatewayConfig{
		Binary:       bin,
		Network:      "regtest",
		RPCServer:    "127.0.0.1:10010",
		MacaroonPath: "/tmp/admin.macaroon",
	})
	require.Equal(t, "regtest", gw.Network())

	out, err := gw.Run(context.Background(), "addholdinvoice", "--amt",
		"1000", "ab")
	require.NoError(t, err)
	require.Equal(t, []string{
		"--network=regtest",
		"--rpcserver=127.0.0.1:10010",
		"--macaroonpath=/tmp/admin.macaroon",
		"addholdinvoice", "--amt", "1000", "ab",
	}, strings.Split(strings.TrimSpace(out), "\n"))
}

func TestGatewayDefaultNetwork(t *testing.T) {
	bin := writeFakeCLI(t, `echo "$1"`)
	gw := NewGateway(GatewayConfig{Binary: bin})

	out, err := gw.Run(context.Background(), "getinfo")
	require.NoError(t, err)
	require.Equal(t, "--network=testnet", strings.TrimSpace(out))
}

func TestGatewayCommandFailed(t *testing.T) {
	bin := writeFakeCLI(t, `echo "[lncli] wallet locked, unlock it to enable full RPC access" >&2; exit 2`)
	gw := NewGateway(GatewayConfig{Binary: bin})

	out, err := gw.Run(context.Background(), "getinfo")
	require.Empty(t, out)

	var cmdErr *CommandFailedError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, 2, cmdErr.ExitCode)
	require.Equal(t, []string{"getinfo"}, cmdErr.Args)
	require.True(t, cmdErr.Contains("WALLET LOCKED"))
	require.Contains(t, err.Error(), "getinfo failed (exit code 2)")
}

func TestGatewayCommandFailedStdoutFallback(t *testing.T) {
	bin := writeFakeCLI(t, `echo "only on stdout"; exit 1`)
	gw := NewGateway(GatewayConfig{Binary: bin})

	_, err := gw.Run(context.Background(), "listchannels")

	var cmdErr *CommandFailedError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, "only on stdout", cmdErr.Stderr)
}

func TestGatewaySpawnFailed(t *testing.T) {
	gw := NewGateway(GatewayConfig{
		Binary: filepath.Join(t.TempDir(), "missing-lncli"),
	})

	_, err := gw.Run(context.Background(), "getinfo")

	var spawnErr *SpawnFailedError
	require.ErrorAs(t, err, &spawnErr)

	var cmdErr *CommandFailedError
	require.NotErrorAs(t, err, &cmdErr)
}

func TestGatewayTimeout(t *testing.T) {
	bin := writeFakeCLI(t, `exec sleep 5`)
	gw := NewGateway(GatewayConfig{
		Binary:  bin,
		Timeout: 100 * time.Millisecond,
	})

	start := time.Now()
	_, err := gw.Run(context.Background(), "getinfo")
	require.Less(t, time.Since(start), 4*time.Second)

	var spawnErr *SpawnFailedError
	require.ErrorAs(t, err, &spawnErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGatewayStdin(t *testing.T) {
	bin := writeFakeCLI(t, `read pw; echo "got $pw"`)
	gw := NewGateway(GatewayConfig{Binary: bin})

	out, err := gw.RunWithStdin(context.Background(),
		strings.NewReader("secret\n"), "unlock", "--stdin")
	require.NoError(t, err)
	require.Equal(t, "got secret", strings.TrimSpace(out))
}
