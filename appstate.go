package htlc

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// AppState is everything a front end renders. It is owned by the EventLoop;
// everyone else sees copies.
type AppState struct {
	StatusMessage string        `json:"status_message,omitempty"`
	Node          NodeStatus    `json:"node"`
	LastPreimage  string        `json:"last_preimage,omitempty"`
	LastHash      string        `json:"last_hash,omitempty"`
	Invoices      []InvoiceView `json:"invoices,omitempty"`

	// Seq counts applied updates.
	Seq uint64 `json:"seq"`
}

func (s AppState) clone() AppState {
	s.Invoices = slices.Clone(s.Invoices)
	return s
}

// StatusMessage returns an update that replaces the status line.
func StatusMessage(msg string) Update {
	return func(s *AppState) {
		s.StatusMessage = msg
	}
}

// SetNodeStatus returns an update carrying a poll result.
func SetNodeStatus(status NodeStatus) Update {
	return func(s *AppState) {
		s.Node = status
	}
}

// SetPreimagePair returns an update recording the last generated pair.
func SetPreimagePair(preimageHex, hashHex string) Update {
	return func(s *AppState) {
		s.LastPreimage = preimageHex
		s.LastHash = hashHex
	}
}

// SetInvoices returns an update replacing the invoice list. Invoices whose
// state changed since the previous list are reported in the status line.
func SetInvoices(views []InvoiceView) Update {
	return func(s *AppState) {
		changed := invoiceTransitions(s.Invoices, views)
		s.Invoices = views

		switch len(changed) {
		case 0:
		case 1:
			s.StatusMessage = changed[0]
		default:
			s.StatusMessage = fmt.Sprintf("Updated invoice states "+
				"(%d changed)", len(changed))
		}
	}
}

// invoiceTransitions describes every invoice in next whose state differs
// from its entry in prev. Invoices new to the list are not transitions.
func invoiceTransitions(prev, next []InvoiceView) []string {
	states := make(map[string]string, len(prev))
	for _, inv := range prev {
		states[strings.ToLower(inv.PaymentHash)] = inv.State
	}

	var changed []string
	for _, inv := range next {
		old, ok := states[strings.ToLower(inv.PaymentHash)]
		if !ok || old == inv.State {
			continue
		}
		log.Infof("Invoice %s: %s -> %s", inv.PaymentHash, old,
			inv.State)
		changed = append(changed, fmt.Sprintf("Invoice %s is now %s",
			inv.PaymentHash, inv.State))
	}
	return changed
}

// Batch applies updates in order.
func Batch(updates ...Update) Update {
	return func(s *AppState) {
		for _, u := range updates {
			if u != nil {
				u(s)
			}
		}
	}
}

// EventLoop serializes all state changes. It merges task results from a
// Dispatcher with node status updates and publishes a snapshot after each
// applied update.
type EventLoop struct {
	dispatcher *Dispatcher
	statuses   <-chan NodeStatus
	invoices   InvoiceNode

	mu    sync.Mutex
	state AppState
	subs  []chan AppState

	quit chan struct{}
	once sync.Once
}

// NewEventLoop creates a loop reading from dispatcher and statuses. Either
// may be nil.
func NewEventLoop(dispatcher *Dispatcher,
	statuses <-chan NodeStatus) *EventLoop {

	return &EventLoop{
		dispatcher: dispatcher,
		statuses:   statuses,
		quit:       make(chan struct{}),
	}
}

// TrackInvoices makes the loop reload the invoice list from node after every
// status update that finds the wallet unlocked, so that hold invoices moving
// to ACCEPTED or SETTLED show up. It must be called before Run.
func (l *EventLoop) TrackInvoices(node InvoiceNode) {
	l.invoices = node
}

// Subscribe returns a channel receiving state snapshots. A slow subscriber
// only misses intermediate snapshots, never the latest one.
func (l *EventLoop) Subscribe() <-chan AppState {
	ch := make(chan AppState, 1)

	l.mu.Lock()
	l.subs = append(l.subs, ch)
	l.mu.Unlock()

	return ch
}

// State returns a copy of the current state.
func (l *EventLoop) State() AppState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// Submit runs task on the dispatcher.
func (l *EventLoop) Submit(name string, task Task) {
	if l.dispatcher == nil {
		return
	}
	l.dispatcher.Submit(name, task)
}

// Run applies updates until ctx is done or the loop is closed.
func (l *EventLoop) Run(ctx context.Context) error {
	var results <-chan Update
	if l.dispatcher != nil {
		results = l.dispatcher.Results()
	}

	for {
		select {
		case update := <-results:
			l.apply(update)

		case status := <-l.statuses:
			l.apply(SetNodeStatus(status))

			if l.invoices != nil && status.Running() &&
				status.Wallet == WalletUnlocked {

				l.Submit("list invoices",
					RefreshInvoicesTask(l.invoices))
			}

		case <-l.quit:
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Apply applies update directly on the caller's goroutine. It is a no-op
// once the loop is closed.
func (l *EventLoop) Apply(update Update) {
	l.apply(update)
}

func (l *EventLoop) apply(update Update) {
	select {
	case <-l.quit:
		return
	default:
	}

	l.mu.Lock()
	update(&l.state)
	l.state.Seq++
	snapshot := l.state.clone()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	for _, ch := range subs {
		publishLatest(ch, snapshot)
	}
}

func publishLatest[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Close stops the loop and its dispatcher. Deliveries after Close are
// dropped.
func (l *EventLoop) Close() {
	l.once.Do(func() {
		close(l.quit)
		if l.dispatcher != nil {
			l.dispatcher.Stop()
		}
	})
}
