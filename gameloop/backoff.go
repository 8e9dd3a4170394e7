package gameloop

import "time"

// Backoff tracks consecutive request failures and the growing delay
// applied to the scheduler. There is no inner retry loop anywhere: the
// next scheduled tick is the retry, and Backoff only stretches the
// interval in front of it.
type Backoff struct {
	base       time.Duration
	max        time.Duration
	count      int
	multiplier int
}

// NewBackoff creates a Backoff with the given base and cap.
func NewBackoff(base, max time.Duration) *Backoff {
	return &Backoff{base: base, max: max, multiplier: 1}
}

// Fail records one more consecutive failure. The first failure leaves
// the multiplier at 1, so delay(N) = min(base * 2^(N-1), max).
func (b *Backoff) Fail() {
	if b.count > 0 {
		b.multiplier *= 2
	}
	b.count++
}

// Success resets the state to (0, 1).
func (b *Backoff) Success() {
	b.count = 0
	b.multiplier = 1
}

// Consecutive returns the number of consecutive failures.
func (b *Backoff) Consecutive() int {
	return b.count
}

// Delay returns the interval extension for the next tick: zero while
// healthy, min(base * multiplier, max) after failures.
func (b *Backoff) Delay() time.Duration {
	if b.count == 0 {
		return 0
	}
	d := b.base * time.Duration(b.multiplier)
	if d > b.max {
		return b.max
	}
	return d
}
