package htlc

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// DefaultWorkers bounds the number of node commands running at once.
const DefaultWorkers = 4

// Update mutates the application state. Updates are only ever applied by the
// event loop, one at a time.
type Update func(*AppState)

// Task is a blocking unit of work, typically one or more lncli calls. It
// returns the update describing its outcome.
type Task func(ctx context.Context) (Update, error)

// Dispatcher runs tasks off the event loop on a bounded set of workers and
// hands their updates back over a channel.
type Dispatcher struct {
	sem     *semaphore.Weighted
	results chan Update

	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	quit chan struct{}
	once sync.Once
}

func NewDispatcher(workers int) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		sem:     semaphore.NewWeighted(int64(workers)),
		results: make(chan Update, workers),
		ctx:     ctx,
		cancel:  cancel,
		quit:    make(chan struct{}),
	}
}

// Submit schedules task under name. It never blocks the caller; the task
// waits for a free worker in its own goroutine. A failing task produces a
// status message update.
func (d *Dispatcher) Submit(name string, task Task) {
	select {
	case <-d.quit:
		log.Debugf("Dispatcher stopped, dropping task %s", name)
		return
	default:
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			return
		}
		update, err := task(d.ctx)
		d.sem.Release(1)

		if err != nil {
			log.Errorf("Task %s: %v", name, err)
			update = StatusMessage(fmt.Sprintf("%s failed: %v", name,
				err))
		}
		if update == nil {
			return
		}
		d.deliver(name, update)
	}()
}

func (d *Dispatcher) deliver(name string, update Update) {
	select {
	case d.results <- update:
	case <-d.quit:
		log.Debugf("Dispatcher stopped, discarding result of %s", name)
	}
}

// Results is read by the event loop.
func (d *Dispatcher) Results() <-chan Update {
	return d.results
}

// Stop cancels running tasks and waits for them to return. Results produced
// after Stop are discarded.
func (d *Dispatcher) Stop() {
	d.once.Do(func() {
		close(d.quit)
		d.cancel()
		d.wg.Wait()
	})
}
