package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Erichy-dev/htlc"
	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

const (
	logFileName    = "htlc.log"
	maxLogFileSize = 10 * 1024
	maxLogFiles    = 3
)

// logWriter writes to stderr and, once the rotator is initialized, to the
// log file.
type logWriter struct {
	rotatorPipe *io.PipeWriter
}

func (w *logWriter) Write(b []byte) (int, error) {
	os.Stderr.Write(b)
	if w.rotatorPipe != nil {
		w.rotatorPipe.Write(b)
	}
	return len(b), nil
}

type logger struct {
	writer  *logWriter
	rotator *rotator.Rotator
}

// setupLogging wires the library's logger to stderr and a rotating file in
// <dataDir>/logs. Unknown levels fall back to info.
func setupLogging(dataDir, level string) (*logger, error) {
	l := &logger{writer: &logWriter{}}

	logFile := filepath.Join(dataDir, "logs", logFileName)
	if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	r, err := rotator.New(logFile, maxLogFileSize, false, maxLogFiles)
	if err != nil {
		return nil, fmt.Errorf("creating file rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		if err := r.Run(pr); err != nil {
			fmt.Fprintf(os.Stderr, "file rotator: %v\n", err)
		}
	}()
	l.writer.rotatorPipe = pw
	l.rotator = r

	backend := btclog.NewBackend(l.writer)
	sub := backend.Logger(htlc.Subsystem)
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		lvl = btclog.LevelInfo
	}
	sub.SetLevel(lvl)
	htlc.UseLogger(sub)

	return l, nil
}

func (l *logger) Close() error {
	htlc.UseLogger(btclog.Disabled)
	if l.writer.rotatorPipe != nil {
		l.writer.rotatorPipe.Close()
	}
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}
