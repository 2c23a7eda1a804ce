package htlc

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// waitState reads snapshots until cond holds.
func waitState(t *testing.T, ch <-chan AppState,
	cond func(AppState) bool) AppState {

	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("state condition not reached")
			return AppState{}
		}
	}
}

func TestHoldInvoiceTasksThroughLoop(t *testing.T) {
	runner := newFakeRunner()
	key := newTestNodeKey(t)
	fakeHoldInvoiceNode(t, runner, key, key.pubHex)
	runner.reply("settleinvoice", "{}")
	node := newTestNode(t, runner)

	l := NewEventLoop(NewDispatcher(2), nil)
	snapshots := l.Subscribe()
	runLoop(t, l)

	l.Submit("create hold invoice", CreateHoldInvoiceTask(node,
		InvoiceRequest{AmountSat: 1000, Memo: "coffee"}))

	state := waitState(t, snapshots, func(s AppState) bool {
		return s.LastHash != ""
	})
	require.Contains(t, state.StatusMessage, "Created hold invoice")
	require.NoError(t, VerifyPreimage(state.LastPreimage, state.LastHash))

	hash, err := ParseHash(state.LastHash)
	require.NoError(t, err)
	rec, err := node.Ledger().GetInvoice(hash)
	require.NoError(t, err)
	require.Equal(t, state.LastPreimage, rec.PreimageHex())

	l.Submit("settle invoice", SettleInvoiceTask(node, hash))
	state = waitState(t, snapshots, func(s AppState) bool {
		return s.StatusMessage == "Invoice settlement successful"
	})

	settle := runner.called("settleinvoice")
	require.Len(t, settle, 1)
	require.Equal(t, state.LastPreimage, settle[0][2])
}

func TestSettleInvoiceTaskUnknownHash(t *testing.T) {
	node := newTestNode(t, newFakeRunner())

	l := NewEventLoop(NewDispatcher(1), nil)
	snapshots := l.Subscribe()
	runLoop(t, l)

	_, hash := NewPreimagePair()
	l.Submit("settle invoice", SettleInvoiceTask(node, hash))

	state := recvState(t, snapshots)
	require.Contains(t, state.StatusMessage, "settle invoice failed")
	require.Contains(t, state.StatusMessage, ErrInvoiceNotFound.Error())
}

func TestTrackInvoicesFollowsStateChanges(t *testing.T) {
	runner := newFakeRunner()
	node := newTestNode(t, runner)

	rec := newHoldRecord()
	require.NoError(t, node.Ledger().PutInvoice(rec))

	var state atomic.Value
	state.Store("OPEN")
	runner.on("listinvoices", func([]string) (string, error) {
		return fmt.Sprintf(`{"invoices": [{"memo": "coffee", `+
			`"r_hash": %q, "value": "1000", "state": %q}]}`,
			rec.PaymentHash, state.Load()), nil
	})

	statuses := make(chan NodeStatus)
	l := NewEventLoop(NewDispatcher(1), statuses)
	l.TrackInvoices(node)
	snapshots := l.Subscribe()
	runLoop(t, l)

	// A locked wallet does not trigger a refresh.
	statuses <- NodeStatus{State: StateRunning, Wallet: WalletLocked}
	recvState(t, snapshots)
	require.Empty(t, runner.called("listinvoices"))

	unlocked := NodeStatus{State: StateRunning, Wallet: WalletUnlocked}
	statuses <- unlocked
	s := waitState(t, snapshots, func(s AppState) bool {
		return len(s.Invoices) == 1
	})
	require.Equal(t, "OPEN", s.Invoices[0].State)
	require.True(t, s.Invoices[0].HasPreimage)

	// The payer locks in the HTLC; the next poll picks it up.
	state.Store("ACCEPTED")
	statuses <- unlocked
	s = waitState(t, snapshots, func(s AppState) bool {
		return len(s.Invoices) == 1 && s.Invoices[0].State == "ACCEPTED"
	})
	require.Equal(t, fmt.Sprintf("Invoice %s is now ACCEPTED",
		rec.PaymentHash), s.StatusMessage)
}

func TestSetInvoicesReportsTransitions(t *testing.T) {
	l := NewEventLoop(nil, nil)
	l.Apply(SetInvoices([]InvoiceView{
		{PaymentHash: "aa", State: "OPEN"},
		{PaymentHash: "bb", State: "OPEN"},
	}))
	require.Empty(t, l.State().StatusMessage)

	l.Apply(SetInvoices([]InvoiceView{
		{PaymentHash: "aa", State: "SETTLED"},
		{PaymentHash: "bb", State: "CANCELED"},
		{PaymentHash: "cc", State: "OPEN"},
	}))
	require.Equal(t, "Updated invoice states (2 changed)",
		l.State().StatusMessage)

	l.Apply(SetInvoices([]InvoiceView{
		{PaymentHash: "AA", State: "SETTLED"},
		{PaymentHash: "bb", State: "CANCELED"},
		{PaymentHash: "cc", State: "ACCEPTED"},
	}))
	require.Equal(t, "Invoice cc is now ACCEPTED", l.State().StatusMessage)
}
