// delay_scheduler_test.go - calibration and wait-loop accuracy against a
// simulated reference clock.

package main

import (
	"math"
	"strings"
	"testing"
)

// simClock models a CPU of a chosen speed: every spin call costs spinCost
// simulated nanoseconds and every clock poll costs pollCost. The tick
// count is derived from accumulated simulated time exactly the way the
// host clock derives it.
type simClock struct {
	ns       uint64
	spinCost uint64
	pollCost uint64
}

func (c *simClock) Now() uint32 {
	c.ns += c.pollCost
	return ticksFromNanos(c.ns)
}

func (c *simClock) spin() {
	c.ns += c.spinCost
}

// newSimScheduler wires a scheduler to a simulated CPU where one wait
// iteration costs spinCost ns.
func newSimScheduler(spinCost, pollCost uint64) (*DelayScheduler, *simClock) {
	c := &simClock{spinCost: spinCost, pollCost: pollCost}
	s := NewDelayScheduler(c)
	s.spin = c.spin
	return s, c
}

// waitDuration runs Wait and returns the simulated nanoseconds consumed.
func waitDuration(s *DelayScheduler, c *simClock, samples uint16) uint64 {
	before := c.ns
	s.Wait(samples)
	return c.ns - before
}

func TestCalibrateAndWaitAccuracy(t *testing.T) {
	s, c := newSimScheduler(1000, 50)
	if err := s.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	for _, samples := range []uint16{1, 10, 735, 882, 9688, 44100, 65535} {
		got := waitDuration(s, c, samples)
		want := float64(samples) / sampleRate * 1e9
		err := math.Abs(float64(got)-want) / want
		// Quantization allows at most a couple percent; typical error is
		// far smaller once the denominator search converges.
		if err > 0.02 {
			t.Errorf("Wait(%d) took %d ns, want ~%.0f ns (error %.2f%%)",
				samples, got, want, err*100)
		}
	}
}

func TestWaitZeroSamples(t *testing.T) {
	s, c := newSimScheduler(1000, 50)
	if err := s.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if got := waitDuration(s, c, 0); got != 0 {
		t.Errorf("Wait(0) consumed %d ns, want 0", got)
	}
}

func TestWaitBeforeCalibrationIsNoop(t *testing.T) {
	s, c := newSimScheduler(1000, 50)
	if got := waitDuration(s, c, 44100); got != 0 {
		t.Errorf("uncalibrated Wait consumed %d ns, want 0", got)
	}
}

func TestCalibrateOnce(t *testing.T) {
	s, _ := newSimScheduler(1000, 50)
	if err := s.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	first := s.Params()

	// A second call must not rerun the search.
	if err := s.Calibrate(); err != nil {
		t.Fatalf("second Calibrate failed: %v", err)
	}
	if s.Params() != first {
		t.Errorf("recalibration changed parameters: %+v -> %+v", first, s.Params())
	}
}

func TestCalibrationRepeatable(t *testing.T) {
	// Two schedulers on identical simulated CPUs must produce
	// equivalent wait durations, bit-identical parameters or not.
	s1, c1 := newSimScheduler(1000, 50)
	s2, c2 := newSimScheduler(1000, 50)
	if err := s1.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if err := s2.Calibrate(); err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}

	d1 := waitDuration(s1, c1, 44100)
	d2 := waitDuration(s2, c2, 44100)
	diff := math.Abs(float64(d1)-float64(d2)) / float64(d1)
	if diff > 0.01 {
		t.Errorf("durations diverge: %d vs %d ns", d1, d2)
	}
}

func TestParameterInvariants(t *testing.T) {
	for _, spinCost := range []uint64{200, 1000, 5000, 20000} {
		s, _ := newSimScheduler(spinCost, 50)
		if err := s.Calibrate(); err != nil {
			t.Fatalf("Calibrate failed at spinCost %d: %v", spinCost, err)
		}
		p := s.Params()
		if p.AdjDn%2 != 0 {
			t.Errorf("spinCost %d: AdjDn %d is odd", spinCost, p.AdjDn)
		}
		if p.AdjDn == 0 {
			t.Errorf("spinCost %d: AdjDn is zero", spinCost)
		}
		if p.Initial != p.AdjDn-p.AdjUp {
			t.Errorf("spinCost %d: Initial %d != AdjDn-AdjUp %d",
				spinCost, p.Initial, p.AdjDn-p.AdjUp)
		}
		if p.Step == 0 && p.AdjUp == 0 {
			t.Errorf("spinCost %d: degenerate parameters %+v", spinCost, p)
		}
	}
}

func TestCalibrateTooFastCPU(t *testing.T) {
	// A loop so fast that even the capped denominator cannot stretch a
	// short trial across the tick threshold. Shrunk trial keeps the
	// exhaustive search cheap.
	s, _ := newSimScheduler(1, 2000)
	s.trialSamples = 16
	err := s.Calibrate()
	if err == nil {
		t.Fatal("Calibrate succeeded, want failure")
	}
	if !strings.Contains(err.Error(), "too slow for delay calibration") {
		t.Errorf("unexpected error: %v", err)
	}
	if s.Calibrated() {
		t.Error("scheduler marked calibrated after failed calibration")
	}
}

func TestDeriveParameters(t *testing.T) {
	cases := []struct {
		n, d uint32
		want DelayParameters
	}{
		{44100, 1, DelayParameters{Step: 44100, AdjUp: 0, AdjDn: 2, Initial: 2}},
		{900, 20410, DelayParameters{Step: 0, AdjUp: 900, AdjDn: 40820, Initial: 39920}},
		{900, 450, DelayParameters{Step: 2, AdjUp: 0, AdjDn: 900, Initial: 900}},
		// Oversized denominators clamp instead of wrapping.
		{900, 0x10000, DelayParameters{Step: 0, AdjUp: 900, AdjDn: 0xFFFE, Initial: 0xFFFE - 900}},
	}
	for _, tc := range cases {
		if got := deriveParameters(tc.n, tc.d); got != tc.want {
			t.Errorf("deriveParameters(%d, %d) = %+v, want %+v", tc.n, tc.d, got, tc.want)
		}
	}
}
