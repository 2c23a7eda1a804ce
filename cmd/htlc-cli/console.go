package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Erichy-dev/htlc"
)

const consoleHelp = "commands: preimage | hold <amt> [memo] | " +
	"invoice <amt> [memo] | settle <hash> | cancel <hash> | refresh"

var errConsoleUsage = errors.New(consoleHelp)

// consoleTask turns one console line into a named task for the event loop.
// An empty line yields no task.
func consoleTask(node htlc.InvoiceNode, line string) (string, htlc.Task,
	error) {

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "preimage":
		return "new preimage", htlc.GeneratePairTask(), nil

	case "refresh":
		return "list invoices", htlc.RefreshInvoicesTask(node), nil

	case "hold", "invoice":
		if len(args) == 0 {
			return "", nil, fmt.Errorf("%s: missing amount", cmd)
		}
		amt, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return "", nil, fmt.Errorf("%s: invalid amount %q", cmd,
				args[0])
		}
		req := htlc.InvoiceRequest{
			AmountSat: amt,
			Memo:      strings.Join(args[1:], " "),
		}
		if err := req.Validate(); err != nil {
			return "", nil, fmt.Errorf("%s: %w", cmd, err)
		}
		if cmd == "hold" {
			return "create hold invoice",
				htlc.CreateHoldInvoiceTask(node, req), nil
		}
		return "create invoice", htlc.CreateStandardInvoiceTask(node, req),
			nil

	case "settle", "cancel":
		if len(args) != 1 {
			return "", nil, fmt.Errorf("%s: expected one payment "+
				"hash", cmd)
		}
		hash, err := htlc.ParseHash(args[0])
		if err != nil {
			return "", nil, fmt.Errorf("%s: %w", cmd, err)
		}
		if cmd == "settle" {
			return "settle invoice", htlc.SettleInvoiceTask(node, hash),
				nil
		}
		return "cancel invoice", htlc.CancelInvoiceTask(node, hash), nil

	default:
		return "", nil, errConsoleUsage
	}
}

// runConsole reads commands from r until EOF and hands them to loop.
// Unknown commands show up as status messages.
func runConsole(r io.Reader, node htlc.InvoiceNode, loop *htlc.EventLoop) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		name, task, err := consoleTask(node, scanner.Text())
		switch {
		case err != nil:
			loop.Apply(htlc.StatusMessage(err.Error()))
		case task != nil:
			loop.Submit(name, task)
		}
	}
}
