package led

import (
	"sync/atomic"
	"time"

	"github.com/smazurov/stripnode/internal/metrics"
)

// refresher runs Show on its own goroutine so the task loop never blocks
// on the SPI transfer. Requests made while one is pending are merged.
type refresher struct {
	strip    Strip
	requests chan struct{}
	errs     chan error
	stopCh   chan struct{}
	done     chan struct{}
	shown    *atomic.Uint64
}

func newRefresher(strip Strip, shown *atomic.Uint64) *refresher {
	return &refresher{
		strip:    strip,
		requests: make(chan struct{}, 1),
		errs:     make(chan error, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		shown:    shown,
	}
}

func (r *refresher) start() {
	go r.run()
}

// request asks for one Show without waiting for it.
func (r *refresher) request() {
	select {
	case r.requests <- struct{}{}:
	default:
		metrics.IncRefreshCoalesced()
	}
}

// stop waits for an in-flight Show to finish and the goroutine to exit.
func (r *refresher) stop() {
	select {
	case <-r.stopCh:
	default:
		close(r.stopCh)
	}
	<-r.done
}

func (r *refresher) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stopCh:
			return
		case <-r.requests:
			start := time.Now()
			err := r.strip.Show()
			metrics.ObserveShow(time.Since(start), err)
			if err != nil {
				r.errs <- err
				return
			}
			r.shown.Add(1)
		}
	}
}
