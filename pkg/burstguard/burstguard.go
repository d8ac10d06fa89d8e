// Package burstguard caps how often an operation may be attempted inside a
// sliding window before the caller should give up. It is used by playback
// sessions to stop a broken source from driving an endless advance loop.
//
// Example usage:
//
//	g := burstguard.New(5, 30*time.Second)
//	if !g.Allow() {
//	    // too many attempts without success, bail out
//	}
//	// on success:
//	g.Reset()
package burstguard

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Guard tracks attempts with a token bucket: burst tokens refilled over
// window. Safe for concurrent use.
type Guard struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	burst   int
	window  time.Duration
}

// New creates a Guard allowing at most burst attempts per window.
func New(burst int, window time.Duration) *Guard {
	if burst < 1 {
		burst = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Guard{
		limiter: newLimiter(burst, window),
		burst:   burst,
		window:  window,
	}
}

// Allow consumes one attempt token. A false return means the burst
// threshold was exceeded within the window.
func (g *Guard) Allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.limiter.Allow()
}

// Reset refills the bucket after a successful operation.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.limiter = newLimiter(g.burst, g.window)
}

func newLimiter(burst int, window time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(float64(burst)/window.Seconds()), burst)
}
