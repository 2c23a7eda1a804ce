package htlc

import (
	"fmt"
	"strings"
)

// SpawnFailedError is returned when the node CLI could not be started or was
// interrupted, e.g. because the binary is missing or the context expired.
type SpawnFailedError struct {
	Binary string
	Err    error
}

func (e *SpawnFailedError) Error() string {
	return fmt.Sprintf("running %s: %v", e.Binary, e.Err)
}

func (e *SpawnFailedError) Unwrap() error {
	return e.Err
}

// CommandFailedError is returned when the node CLI exits with a non-zero
// status. Stderr holds the diagnostic text printed by the CLI.
type CommandFailedError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandFailedError) Error() string {
	cmd := "command"
	if len(e.Args) > 0 {
		cmd = e.Args[0]
	}
	return fmt.Sprintf("%s failed (exit code %d): %s", cmd, e.ExitCode,
		e.Stderr)
}

// Contains reports whether the CLI diagnostic contains substr, ignoring case.
func (e *CommandFailedError) Contains(substr string) bool {
	return strings.Contains(strings.ToLower(e.Stderr),
		strings.ToLower(substr))
}

// ParseError is returned when CLI output does not have the expected JSON
// shape.
type ParseError struct {
	// Field is the JSON path that was looked up, empty when the document
	// itself could not be decoded.
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parsing response: %v", e.Err)
	}
	return fmt.Sprintf("parsing response field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// StorageError wraps failures of the ledger's key-value store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
