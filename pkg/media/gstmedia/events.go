package gstmedia

import (
	"sync"

	"github.com/stagecue/stagecue/internal/log"
)

// eventQueue runs handler callbacks on a dedicated goroutine so the bus
// watcher never blocks in user code. A handler may stop the composition and
// close the graph, which tears down this very queue; stop therefore only
// signals and never joins.
type eventQueue struct {
	fns  chan func()
	quit chan struct{}
	once sync.Once
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		fns:  make(chan func(), 16),
		quit: make(chan struct{}),
	}
}

// run consumes queued callbacks until stop. Start it in its own goroutine.
func (q *eventQueue) run() {
	for {
		select {
		case fn := <-q.fns:
			q.call(fn)
		case <-q.quit:
			return
		}
	}
}

// call shields the queue goroutine from a panicking handler.
func (q *eventQueue) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("media event handler panic", "err", r)
		}
	}()
	fn()
}

// dispatch queues fn for the handler goroutine. Once the queue is stopped
// the event is dropped; a torn-down graph has no observers left.
func (q *eventQueue) dispatch(fn func()) {
	select {
	case q.fns <- fn:
	case <-q.quit:
	}
}

// stop signals the queue goroutine to exit. Safe to call from a handler
// running on that same goroutine.
func (q *eventQueue) stop() {
	q.once.Do(func() {
		close(q.quit)
	})
}
