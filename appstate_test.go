package htlc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func recvState(t *testing.T, ch <-chan AppState) AppState {
	t.Helper()

	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no state snapshot")
		return AppState{}
	}
}

func runLoop(t *testing.T, l *EventLoop) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		l.Close()
		<-done
	})
}

func TestEventLoopAppliesStatusUpdates(t *testing.T) {
	statuses := make(chan NodeStatus)
	l := NewEventLoop(nil, statuses)
	snapshots := l.Subscribe()
	runLoop(t, l)

	statuses <- NodeStatus{State: StateRunning, Wallet: WalletLocked}
	state := recvState(t, snapshots)
	require.Equal(t, WalletLocked, state.Node.Wallet)
	require.EqualValues(t, 1, state.Seq)

	statuses <- NodeStatus{State: StateRunning, Wallet: WalletUnlocked,
		Synced: true}
	state = recvState(t, snapshots)
	require.Equal(t, "Chain synced", state.Node.SyncText())
	require.EqualValues(t, 2, state.Seq)
}

func TestEventLoopAppliesInOrder(t *testing.T) {
	l := NewEventLoop(nil, nil)

	for i := 0; i < 10; i++ {
		i := i
		l.Apply(func(s *AppState) {
			s.Invoices = append(s.Invoices,
				InvoiceView{Value: int64(i)})
		})
	}

	state := l.State()
	require.Len(t, state.Invoices, 10)
	for i, inv := range state.Invoices {
		require.EqualValues(t, i, inv.Value)
	}
	require.EqualValues(t, 10, state.Seq)
}

func TestEventLoopDispatcherResults(t *testing.T) {
	l := NewEventLoop(NewDispatcher(2), nil)
	snapshots := l.Subscribe()
	runLoop(t, l)

	l.Submit("new preimage", GeneratePairTask())

	state := recvState(t, snapshots)
	require.Equal(t, "Generated new preimage pair", state.StatusMessage)
	require.NoError(t, VerifyPreimage(state.LastPreimage, state.LastHash))
}

func TestEventLoopSnapshotsAreCopies(t *testing.T) {
	l := NewEventLoop(nil, nil)
	l.Apply(SetInvoices([]InvoiceView{{Memo: "a"}}))

	state := l.State()
	state.Invoices[0].Memo = "changed"

	require.Equal(t, "a", l.State().Invoices[0].Memo)
}

func TestEventLoopClosedIsNoop(t *testing.T) {
	l := NewEventLoop(NewDispatcher(1), nil)
	l.Apply(StatusMessage("before"))
	l.Close()

	l.Apply(StatusMessage("after"))
	l.Submit("late", GeneratePairTask())

	state := l.State()
	require.Equal(t, "before", state.StatusMessage)
	require.EqualValues(t, 1, state.Seq)

	// Run returns right away on a closed loop.
	require.NoError(t, l.Run(context.Background()))
}
