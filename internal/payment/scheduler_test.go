package payment_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jkimani/duka-pos/internal/payment"
)

func TestTickerScheduler(t *testing.T) {
	t.Run("fires repeatedly until cancelled", func(t *testing.T) {
		scheduler := payment.NewTickerScheduler()

		var ticks int64
		handle := scheduler.Start(5*time.Millisecond, func() {
			atomic.AddInt64(&ticks, 1)
		})

		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&ticks) >= 3
		}, time.Second, time.Millisecond)

		handle.Cancel()
		stopped := atomic.LoadInt64(&ticks)
		time.Sleep(30 * time.Millisecond)
		// Allow for one tick that was already dispatched when Cancel ran.
		assert.LessOrEqual(t, atomic.LoadInt64(&ticks), stopped+1)
	})

	t.Run("cancel is idempotent", func(t *testing.T) {
		scheduler := payment.NewTickerScheduler()
		handle := scheduler.Start(time.Millisecond, func() {})

		handle.Cancel()
		assert.NotPanics(t, func() {
			handle.Cancel()
			handle.Cancel()
		})
	})
}
