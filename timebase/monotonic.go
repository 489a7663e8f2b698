package timebase

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// MonotonicCounter emulates a free-running counter on hosts with an OS clock,
// deriving ticks from the runtime's monotonic time.
type MonotonicCounter struct {
	clock physic.Frequency
	start time.Time
}

// NewMonotonicCounter returns a counter ticking at clock.
func NewMonotonicCounter(clock physic.Frequency) *MonotonicCounter {
	return &MonotonicCounter{clock: clock}
}

// Enable starts counting from zero.
func (m *MonotonicCounter) Enable(mode Mode) error {
	m.start = time.Now()
	return nil
}

// Count returns the ticks since Enable.
func (m *MonotonicCounter) Count() uint64 {
	if m.start.IsZero() {
		return 0
	}
	hz := float64(m.clock) / float64(physic.Hertz)
	return uint64(time.Since(m.start).Seconds() * hz)
}

// Clock returns the emulated tick frequency.
func (m *MonotonicCounter) Clock() physic.Frequency { return m.clock }

func (m *MonotonicCounter) String() string {
	return "MonotonicCounter{" + m.clock.String() + "}"
}
