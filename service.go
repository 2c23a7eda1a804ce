package htlc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrServiceCommandMissing is returned when no command is configured for a
// service action.
var ErrServiceCommandMissing = errors.New("no command configured")

// ServiceController starts and stops the node daemon.
type ServiceController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status(ctx context.Context) (string, error)
}

// ServiceCommands are shell command lines, e.g.
// "systemctl --user start lnd" or "launchctl load ~/Library/...".
type ServiceCommands struct {
	Start  string `yaml:"start,omitempty"`
	Stop   string `yaml:"stop,omitempty"`
	Status string `yaml:"status,omitempty"`
}

// CommandService runs configured shell commands through sh -c.
type CommandService struct {
	cmds  ServiceCommands
	shell string
}

func NewCommandService(cmds ServiceCommands) *CommandService {
	return &CommandService{cmds: cmds, shell: "sh"}
}

func (s *CommandService) Start(ctx context.Context) error {
	_, err := s.run(ctx, "start", s.cmds.Start)
	return err
}

func (s *CommandService) Stop(ctx context.Context) error {
	_, err := s.run(ctx, "stop", s.cmds.Stop)
	return err
}

// Status returns the trimmed output of the status command.
func (s *CommandService) Status(ctx context.Context) (string, error) {
	return s.run(ctx, "status", s.cmds.Status)
}

func (s *CommandService) run(ctx context.Context, action,
	cmdLine string) (string, error) {

	if strings.TrimSpace(cmdLine) == "" {
		return "", fmt.Errorf("service %s: %w", action,
			ErrServiceCommandMissing)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.shell, "-c", cmdLine)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Debugf("Service %s: %s", action, cmdLine)
	err := cmd.Run()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return strings.TrimSpace(stdout.String()), nil

	case errors.As(err, &exitErr):
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("service %s: %w", action,
			&CommandFailedError{
				Args:     []string{action},
				ExitCode: exitErr.ExitCode(),
				Stderr:   msg,
			})

	default:
		return "", fmt.Errorf("service %s: %w", action,
			&SpawnFailedError{Binary: s.shell, Err: err})
	}
}

var _ ServiceController = (*CommandService)(nil)
