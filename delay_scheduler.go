// delay_scheduler.go - self-calibrating, division-free sample-time delays.
//
// Playback needs delays with 1/44100 s resolution but the only clock is
// the coarse 19663/1080 Hz timer tick. The scheduler measures how fast
// the host executes a fixed-cost busy loop and reduces that speed to a
// 16-bit rational n/d (samples of wall-clock time consumed per loop
// iteration). Wait() then burns iterations with nothing but integer
// addition and comparison, spreading the fractional part across
// iterations with a Bresenham-style error accumulator.

package main

import "fmt"

const (
	sampleRate = 44100

	// One calibration trial waits this many sample-times; at 44100 Hz it
	// spans almost exactly four reference ticks.
	calSamples  = 8 * 1211
	calMinTicks = 4

	// Largest usable denominator. AdjDn is 2*d, so d itself must stay
	// below 0x8000.
	maxDenom = 0x7FFF
)

// DelayParameters encode the calibrated rate n/d in the addition-only
// form consumed by the wait loop.
type DelayParameters struct {
	Step    uint16 // n / d: whole samples consumed per iteration
	AdjUp   uint16 // n % d: fractional carry per iteration
	AdjDn   uint16 // 2*d: accumulator reload on borrow
	Initial uint16 // AdjDn - AdjUp: accumulator start value
}

// DelayScheduler owns the calibrated parameters and the reference clock.
// Calibrate must run once before the first Wait; the calibrated flag
// keeps repeat playback in the same process from recalibrating.
type DelayScheduler struct {
	clock      ReferenceClock
	spin       func()
	params     DelayParameters
	calibrated bool

	// calibration trial length and threshold; fixed except in tests
	trialSamples uint16
	minTicks     uint32
}

func NewDelayScheduler(clock ReferenceClock) *DelayScheduler {
	return &DelayScheduler{
		clock:        clock,
		spin:         defaultSpin,
		trialSamples: calSamples,
		minTicks:     calMinTicks,
	}
}

// spinSink stops the compiler from deleting the busy-loop body.
var spinSink uint32

//go:noinline
func defaultSpin() {
	spinSink = spinSink*1664525 + 1013904223
}

// Calibrated reports whether parameters have been derived yet.
func (s *DelayScheduler) Calibrated() bool {
	return s.calibrated
}

// Params returns the calibrated parameters. Only meaningful after a
// successful Calibrate.
func (s *DelayScheduler) Params() DelayParameters {
	return s.params
}

// Calibrate discovers the smallest denominator d (and matching numerator
// n) such that waiting calSamples sample-times takes at least calMinTicks
// reference ticks. Minimizing d under that floor bounds the relative
// error from tick quantization while keeping the interpolation as fine
// as the 16-bit fields allow. Busy-waits for anywhere from hundreds of
// milliseconds to a few seconds. Idempotent: a second call returns
// immediately with the cached parameters.
func (s *DelayScheduler) Calibrate() error {
	if s.calibrated {
		return nil
	}

	// Rough loop speed first. The estimate only picks the starting
	// numerator; the search below re-times the real wait loop with no
	// instrumentation inside the timed region.
	itersPerTick := s.measureRawSpeed()

	n := uint32(sampleRate)
	for n > 1 {
		// ideal d = n * iterations-per-sample
		dEst := uint64(n) * uint64(itersPerTick) * tickRateNum /
			(uint64(sampleRate) * tickRateDen)
		if dEst <= maxDenom {
			break
		}
		r, ok := reduceNumerator(n)
		if !ok {
			break
		}
		n = r
	}

	for {
		if d, ok := s.searchDenominator(n); ok {
			s.params = deriveParameters(n, d)
			s.calibrated = true
			return nil
		}
		// Even d = maxDenom ran too fast for this numerator. Shed a
		// prime factor and start over from d = 1.
		r, ok := reduceNumerator(n)
		if !ok {
			return fmt.Errorf("CPU too slow for delay calibration")
		}
		n = r
	}
}

// searchDenominator doubles d from 1 until a trial run meets the tick
// threshold, then binary-searches the smallest passing d. Returns false
// if even the capped maximum denominator cannot reach the threshold.
func (s *DelayScheduler) searchDenominator(n uint32) (uint32, bool) {
	lastFail := uint32(0)
	d := uint32(1)
	for {
		if s.trialTicks(n, d) >= s.minTicks {
			break
		}
		if d >= maxDenom {
			return 0, false
		}
		lastFail = d
		d *= 2
		if d > maxDenom {
			d = maxDenom
		}
	}

	lo, hi := lastFail+1, d
	for lo < hi {
		mid := lo + (hi-lo)/2
		if s.trialTicks(n, mid) >= s.minTicks {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo, true
}

// trialTicks runs the real wait loop for calSamples with parameters
// derived from n/d and returns the elapsed reference ticks. Synchronizes
// to a tick edge first so quantization error is one-sided.
func (s *DelayScheduler) trialTicks(n, d uint32) uint32 {
	t := s.clock.Now()
	for s.clock.Now() == t {
		s.spin()
	}
	start := s.clock.Now()
	s.waitWith(deriveParameters(n, d), s.trialSamples)
	return s.clock.Now() - start
}

// measureRawSpeed counts busy-loop iterations between two consecutive
// tick edges. The polling inside the counted loop biases the figure, so
// it is used only to seed the numerator, never as the final answer.
func (s *DelayScheduler) measureRawSpeed() uint32 {
	t := s.clock.Now()
	for s.clock.Now() == t {
		s.spin()
	}
	edge := s.clock.Now()
	iters := uint32(0)
	for s.clock.Now() == edge {
		s.spin()
		iters++
	}
	if iters == 0 {
		iters = 1
	}
	return iters
}

// reduceNumerator sheds one prime factor of the exact clock ratio from
// n, trading timing resolution for denominator headroom. Returns false
// once n cannot shrink any further.
func reduceNumerator(n uint32) (uint32, bool) {
	for _, p := range [...]uint32{7, 5, 3, 2} {
		if n > 1 && n%p == 0 {
			return n / p, true
		}
	}
	return n, false
}

// deriveParameters reduces n/d to the addition-only wait-loop form.
// d is clamped to maxDenom rather than allowed to wrap.
func deriveParameters(n, d uint32) DelayParameters {
	if d > maxDenom {
		d = maxDenom
	}
	return DelayParameters{
		Step:    uint16(n / d),
		AdjUp:   uint16(n % d),
		AdjDn:   uint16(2 * d),
		Initial: uint16(2*d - n%d),
	}
}

// Wait blocks for approximately samples/44100 seconds. It never fails;
// on an uncalibrated scheduler it returns immediately.
func (s *DelayScheduler) Wait(samples uint16) {
	if !s.calibrated {
		return
	}
	s.waitWith(s.params, samples)
}

// waitWith is the inner delay loop. Each iteration consumes Step whole
// samples plus, via the accumulator, AdjUp/AdjDn-ths of one more: when
// the accumulator crosses zero it borrows a full sample and reloads.
// Average consumption per iteration is exactly n/d samples. No
// multiplication or division happens per iteration.
func (s *DelayScheduler) waitWith(p DelayParameters, samples uint16) {
	remaining := int32(samples)
	acc := int32(p.Initial)
	step := int32(p.Step)
	carry := int32(p.AdjUp) + int32(p.AdjUp)
	reload := int32(p.AdjDn)
	for remaining > 0 {
		s.spin()
		remaining -= step
		acc -= carry
		if acc <= 0 {
			acc += reload
			remaining--
		}
	}
}
