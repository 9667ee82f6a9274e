package payment

import (
	"sync"
	"time"
)

// TimerHandle cancels a running poll loop. Cancel is idempotent: calling it
// after the loop stopped, or calling it twice, is safe.
type TimerHandle interface {
	Cancel()
}

// Scheduler fires a tick callback on a fixed interval until cancelled. It is
// the only source of time-driven transitions in a payment session.
//
// Ticks are dispatched sequentially: a tick callback that has not returned
// blocks the next one. The session additionally guards against overlapping
// status checks itself, so a slow gateway response can never race a later
// tick's check.
type Scheduler interface {
	Start(interval time.Duration, onTick func()) TimerHandle
}

// NewTickerScheduler returns the time.Ticker-backed Scheduler used in
// production.
func NewTickerScheduler() Scheduler {
	return tickerScheduler{}
}

type tickerScheduler struct{}

func (tickerScheduler) Start(interval time.Duration, onTick func()) TimerHandle {
	h := &tickerHandle{stop: make(chan struct{})}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				onTick()
			case <-h.stop:
				return
			}
		}
	}()
	return h
}

type tickerHandle struct {
	once sync.Once
	stop chan struct{}
}

func (h *tickerHandle) Cancel() {
	h.once.Do(func() {
		close(h.stop)
	})
}
