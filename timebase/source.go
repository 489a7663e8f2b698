package timebase

import (
	"math"
	"time"

	"github.com/juju/errors"
)

// Unit is a time unit expressed as units per second.
type Unit uint64

const (
	Millisecond Unit = 1000
	Microsecond Unit = 1000000
	Nanosecond  Unit = 1000000000
)

// ErrWaitTooLong is returned by Wait when the requested duration spans a full
// counter period, which the single-wrap correction cannot measure.
var ErrWaitTooLong = errors.New("timebase: wait exceeds counter period")

// Source measures time in one unit against the armed counter.
type Source struct {
	hw    *Hardware
	unit  Unit
	scale float64 // units per tick
}

// NewSource returns a time source in the given unit.
func NewSource(hw *Hardware, unit Unit) (*Source, error) {
	if hw == nil {
		return nil, errors.NotValidf("nil hardware handle")
	}
	if unit == 0 {
		return nil, errors.NotValidf("zero time unit")
	}
	scale := float64(unit) / hw.hertz()
	if !(scale > 0) || math.IsInf(scale, 0) {
		return nil, errors.NotValidf("time scale %v", scale)
	}
	return &Source{hw: hw, unit: unit, scale: scale}, nil
}

// Unit returns the unit the source counts in.
func (s *Source) Unit() Unit { return s.unit }

// Now returns the raw counter value.
func (s *Source) Now() uint64 {
	return s.hw.counter.Count()
}

// Elapsed returns the time since the tick stamp since. A counter value not
// above since is taken as exactly one wrap; several wraps undercount. With the
// default modulus an unchanged counter reads as math.MaxUint64.
func (s *Source) Elapsed(since uint64) uint64 {
	now := s.Now()
	if now > since {
		return s.Time(now - since)
	}
	return s.Time((s.hw.modulus - since) + now)
}

// Ticks converts an amount of time to counter ticks, rounding down and
// saturating at math.MaxUint64.
func (s *Source) Ticks(amount uint64) uint64 {
	return clamp(float64(amount) / s.scale)
}

// Time converts counter ticks to an amount of time, rounding down and
// saturating at math.MaxUint64.
func (s *Source) Time(ticks uint64) uint64 {
	return clamp(float64(ticks) * s.scale)
}

// clamp converts f to uint64. float64(math.MaxUint64) is 2^64, one past the
// largest uint64, and converting it or anything above is undefined.
func clamp(f float64) uint64 {
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(f)
}

// Wait spins until amount of time has passed.
func (s *Source) Wait(amount uint64) error {
	return s.spin(s.Ticks(amount))
}

// WaitDuration spins until d has passed. Non-positive durations return
// immediately.
func (s *Source) WaitDuration(d time.Duration) error {
	if d <= 0 {
		return nil
	}
	amount := float64(d) * float64(s.unit) / float64(time.Second)
	return s.spin(clamp(amount / s.scale))
}

func (s *Source) spin(target uint64) error {
	if target == 0 {
		return nil
	}
	if target >= s.hw.modulus {
		return errors.Annotatef(ErrWaitTooLong, "%d ticks", target)
	}
	start := s.Now()
	for s.delta(start) < target {
	}
	return nil
}

// delta is the tick distance from start to now assuming at most one wrap.
// Unlike Elapsed an unchanged counter counts as no time at all.
func (s *Source) delta(start uint64) uint64 {
	now := s.Now()
	if now >= start {
		return now - start
	}
	return (s.hw.modulus - start) + now
}
