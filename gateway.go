package htlc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"strings"
	"time"
)

const (
	DefaultBinary  = "lncli"
	DefaultNetwork = "testnet"

	waitDelay = 2 * time.Second
)

// CommandRunner runs the node management CLI with the given arguments and
// returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, args ...string) (string, error)

	// RunWithStdin is like Run but feeds stdin to the process.
	RunWithStdin(ctx context.Context, stdin io.Reader,
		args ...string) (string, error)
}

// GatewayConfig holds the flags passed to every CLI invocation.
type GatewayConfig struct {
	// Binary is the path or name of the lncli executable.
	Binary string

	// Network is passed as --network.
	Network string

	// Optional connection flags. Empty values are omitted so lncli falls
	// back to its own defaults.
	RPCServer    string
	TLSCertPath  string
	MacaroonPath string

	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration
}

// Gateway invokes lncli as a subprocess. It is synchronous and safe for
// concurrent use.
type Gateway struct {
	cfg GatewayConfig
}

func NewGateway(cfg GatewayConfig) *Gateway {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.Network == "" {
		cfg.Network = DefaultNetwork
	}
	return &Gateway{cfg: cfg}
}

// Network returns the network flag the gateway runs with.
func (g *Gateway) Network() string {
	return g.cfg.Network
}

func (g *Gateway) globalArgs() []string {
	args := []string{"--network=" + g.cfg.Network}
	if g.cfg.RPCServer != "" {
		args = append(args, "--rpcserver="+g.cfg.RPCServer)
	}
	if g.cfg.TLSCertPath != "" {
		args = append(args, "--tlscertpath="+g.cfg.TLSCertPath)
	}
	if g.cfg.MacaroonPath != "" {
		args = append(args, "--macaroonpath="+g.cfg.MacaroonPath)
	}
	return args
}

func (g *Gateway) Run(ctx context.Context, args ...string) (string, error) {
	return g.RunWithStdin(ctx, nil, args...)
}

func (g *Gateway) RunWithStdin(ctx context.Context, stdin io.Reader,
	args ...string) (string, error) {

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	cmdArgs := append(g.globalArgs(), args...)
	cmd := exec.CommandContext(ctx, g.cfg.Binary, cmdArgs...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Stdin = stdin

	// Children of lncli may hold the output pipes open after it was
	// killed.
	cmd.WaitDelay = waitDelay

	log.Debugf("Running %s %s", g.cfg.Binary, strings.Join(cmdArgs, " "))

	start := time.Now()
	err := cmd.Run()
	log.Tracef("%s %s finished after %v", g.cfg.Binary, firstArg(args),
		time.Since(start))

	if err == nil {
		return stdout.String(), nil
	}

	// A killed process also reports an exit error, so the context is
	// checked first.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &SpawnFailedError{Binary: g.cfg.Binary, Err: ctxErr}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", &CommandFailedError{
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   msg,
		}
	}

	return "", &SpawnFailedError{Binary: g.cfg.Binary, Err: err}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

var _ CommandRunner = (*Gateway)(nil)
