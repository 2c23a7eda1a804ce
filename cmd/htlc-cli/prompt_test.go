package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/term"
)

func TestReadPassword(t *testing.T) {
	pw, err := readPassword(strings.NewReader("s3cret\r\nignored\n"), "")
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)

	pw, err = readPassword(strings.NewReader("no newline"), "")
	require.NoError(t, err)
	require.Equal(t, "no newline", pw)

	_, err = readPassword(strings.NewReader(""), "")
	require.Error(t, err)
}

// A pipe is not a terminal, so the password is read as a plain line.
func TestReadPasswordPipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	require.False(t, term.IsTerminal(int(r.Fd())))

	_, err = w.WriteString("piped-pw\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	pw, err := readPassword(r, "Wallet password: ")
	require.NoError(t, err)
	require.Equal(t, "piped-pw", pw)
}
