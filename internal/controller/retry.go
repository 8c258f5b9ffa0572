// SPDX-License-Identifier: MIT
package controller

import "time"

// RetryPolicy bounds automatic rebuilds after a construction failure.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// Next returns the delay before retry number attempt+1, given attempt
// retries already made. ok is false once the budget is spent.
func (p RetryPolicy) Next(attempt int) (delay time.Duration, ok bool) {
	if attempt < 0 || attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.Interval, true
}
