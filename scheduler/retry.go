package scheduler

import "time"

// RetryPolicy decides whether a failed attempt gets another try and how long
// to wait. Pure: no clock, no I/O.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// Decision is the outcome for one failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// DefaultRetryPolicy is 3 attempts with 1, 2 and 4 minute delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BackoffBase: time.Minute}
}

// Decide maps the attempt that just failed (1-based) to a decision. The delay
// doubles per attempt: base after the 1st failure, 2*base after the 2nd, and
// so on. Once attemptCount reaches MaxAttempts the post is out of budget.
func (p RetryPolicy) Decide(attemptCount int) Decision {
	if attemptCount >= p.MaxAttempts {
		return Decision{}
	}
	return Decision{
		Retry: true,
		Delay: p.BackoffBase << (attemptCount - 1),
	}
}
