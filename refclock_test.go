// refclock_test.go - nanosecond to reference-tick conversion.

package main

import "testing"

func TestTicksFromNanos(t *testing.T) {
	cases := []struct {
		ns   uint64
		want uint32
	}{
		{0, 0},
		{54_925_494, 0}, // just under one tick (1080e9/19663)
		{54_925_495, 1}, // first tick edge
		{1_000_000_000, 18},
		{tickRateDen * 1_000_000_000, tickRateNum}, // exactly 1080 s
		// Multiples of 1080 s convert exactly, even far past the point
		// where ns*19663 no longer fits in 64 bits (about 10.9 days).
		{2_592_000 * 1_000_000_000, 2400 * tickRateNum},  // 30 days
		{5_184_000 * 1_000_000_000, 4800 * tickRateNum},  // 60 days
	}
	for _, c := range cases {
		if got := ticksFromNanos(c.ns); got != c.want {
			t.Errorf("ticksFromNanos(%d) = %d, want %d", c.ns, got, c.want)
		}
	}
}

// TestTicksFromNanosContinuity steps across the uptime where a single
// 64-bit product of nanoseconds and the tick numerator would overflow,
// checking that every 1080 s advance adds exactly one numerator's worth
// of ticks.
func TestTicksFromNanosContinuity(t *testing.T) {
	const stride = tickRateDen * 1_000_000_000 // 1080 s in ns
	// 10 to 12 days of uptime brackets the overflow boundary.
	for ns := uint64(10 * 86_400 * 1_000_000_000); ns < 12*86_400*1_000_000_000; ns += stride {
		before := ticksFromNanos(ns)
		after := ticksFromNanos(ns + stride)
		if after-before != tickRateNum {
			t.Fatalf("ticks advanced by %d across [%d, %d], want %d",
				after-before, ns, ns+stride, tickRateNum)
		}
	}
}
