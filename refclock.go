// refclock.go - coarse reference clock capability.

package main

import "time"

// The reference tick rate is the PC timer interrupt rate, exactly
// 19663/1080 Hz (~18.2 Hz). All timing in the scheduler is derived from
// differences between two tick counts, so wraparound of the 32-bit
// counter is harmless.
const (
	tickRateNum = 19663
	tickRateDen = 1080
)

// ReferenceClock is the coarse timer the delay scheduler calibrates
// against. Now returns a monotonic tick count that wraps at an
// implementation-defined boundary; callers must only ever compare
// differences between two samples.
type ReferenceClock interface {
	Now() uint32
}

// hostClock synthesizes the 19663/1080 Hz tick count from the host
// monotonic clock.
type hostClock struct {
	start time.Time
}

func NewHostClock() ReferenceClock {
	return &hostClock{start: time.Now()}
}

func (c *hostClock) Now() uint32 {
	return ticksFromNanos(uint64(time.Since(c.start).Nanoseconds()))
}

// ticksFromNanos converts elapsed nanoseconds to whole reference ticks,
// floor(ns * 19663 / (1080 * 1e9)). The seconds and sub-second parts are
// scaled separately so the product never overflows uint64; the naive
// single product does after about eleven days of uptime.
func ticksFromNanos(ns uint64) uint32 {
	const nsPerSec = 1_000_000_000
	sec := ns / nsPerSec
	rem := ns % nsPerSec
	whole := sec * tickRateNum
	frac := ((whole%tickRateDen)*nsPerSec + rem*tickRateNum) / (tickRateDen * nsPerSec)
	return uint32(whole/tickRateDen + frac)
}
