package browser

import (
	"context"
	"time"

	"github.com/go-rod/rod/lib/utils"
)

// Outcome is the result of a bounded wait.
type Outcome int

const (
	// Ready means the condition held before the deadline.
	Ready Outcome = iota
	// TimedOut means the deadline passed first.
	TimedOut
)

func (o Outcome) String() string {
	if o == Ready {
		return "ready"
	}
	return "timed out"
}

const (
	pollInitialInterval = 50 * time.Millisecond
	pollMaxInterval     = time.Second
)

// Condition is evaluated repeatedly by Poll. Errors are treated as "not yet".
type Condition func(ctx context.Context) (bool, error)

// Poll evaluates cond until it holds or timeout expires, backing off
// exponentially between attempts. On TimedOut the last condition error, if
// any, is returned for diagnostics.
func Poll(ctx context.Context, timeout time.Duration, cond Condition) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sleep := utils.BackoffSleeper(pollInitialInterval, pollMaxInterval, func(d time.Duration) time.Duration {
		return d * 2
	})

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return Ready, nil
		}
		if err != nil {
			lastErr = err
		}
		if sleepErr := sleep(ctx); sleepErr != nil {
			return TimedOut, lastErr
		}
	}
}
