package htlc

import (
	"context"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/ticker"
)

const (
	// DefaultPollInterval is how often the node status is refreshed.
	DefaultPollInterval = 10 * time.Second

	// DefaultPollTimeout bounds a single status check.
	DefaultPollTimeout = 15 * time.Second
)

// Poller periodically asks a StatusSource for the node status. It polls once
// on start and then on every tick. There is no retry or backoff; a failed
// check is simply reported and the next tick tries again.
type Poller struct {
	source  StatusSource
	ticker  ticker.Ticker
	timeout time.Duration

	updates chan NodeStatus

	mu      sync.RWMutex
	current NodeStatus

	started sync.Once
	stopped sync.Once
	quit    chan struct{}
	wg      sync.WaitGroup
}

// NewPoller creates a poller driven by t. A zero timeout uses
// DefaultPollTimeout.
func NewPoller(source StatusSource, t ticker.Ticker,
	timeout time.Duration) *Poller {

	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	return &Poller{
		source:  source,
		ticker:  t,
		timeout: timeout,
		updates: make(chan NodeStatus, 1),
		quit:    make(chan struct{}),
	}
}

func (p *Poller) Start() {
	p.started.Do(func() {
		log.Debugf("Starting node status poller")
		p.ticker.Resume()
		p.wg.Add(1)
		go p.run()
	})
}

// Stop halts polling and waits for an in-flight check to finish.
func (p *Poller) Stop() {
	p.stopped.Do(func() {
		close(p.quit)
		p.ticker.Stop()
		p.wg.Wait()
		log.Debugf("Node status poller stopped")
	})
}

// Updates delivers every poll result. Only the latest undelivered result is
// kept when the consumer falls behind.
func (p *Poller) Updates() <-chan NodeStatus {
	return p.updates
}

// Current returns the most recent status.
func (p *Poller) Current() NodeStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

func (p *Poller) run() {
	defer p.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	p.poll(ctx)
	for {
		select {
		case <-p.ticker.Ticks():
			p.poll(ctx)
		case <-p.quit:
			return
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status := p.source.NodeStatus(ctx)
	if ctx.Err() != nil && status.State == StateOffline {
		select {
		case <-p.quit:
			return
		default:
		}
	}

	p.mu.Lock()
	prev := p.current
	p.current = status
	p.publish(status)
	p.mu.Unlock()

	if prev.State != status.State || prev.Wallet != status.Wallet ||
		prev.Synced != status.Synced {

		log.Infof("Node status: %v, wallet %v, %s", status.State,
			status.Wallet, status.SyncText())
	}
}

func (p *Poller) publish(status NodeStatus) {
	publishLatest(p.updates, status)
}
