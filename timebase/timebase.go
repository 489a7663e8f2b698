// Package timebase turns a free-running hardware counter into a monotonic
// time source with a blocking wait.
//
// Only one counter is armed per process. Arm returns a handle to it and every
// Source, whatever its time unit, reads the same ticking counter.
package timebase // import "github.com/DrJosh9000/lcd/timebase"

import (
	"math"
	"sync"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/physic"
)

// Mode selects how the counter runs once enabled. Sources assume an
// up-counter, so ModePeriodicUp is the only mode.
type Mode int

// ModePeriodicUp counts up and wraps to zero at the modulus.
const ModePeriodicUp Mode = 0

func (m Mode) String() string {
	if m == ModePeriodicUp {
		return "periodic-up"
	}
	return "unknown"
}

// Counter is the free-running hardware counter peripheral.
type Counter interface {
	// Enable starts the counter. It is called once per process.
	Enable(mode Mode) error
	// Count returns the current counter value.
	Count() uint64
}

// Opts configures the counter when it is armed.
type Opts struct {
	Clock   physic.Frequency // counter input clock, required
	Modulus uint64           // value at which the counter wraps, 0 means math.MaxUint64
	Logger  *logrus.Logger   // optional
}

// Hardware is the armed counter shared by all sources.
type Hardware struct {
	counter Counter
	clock   physic.Frequency
	modulus uint64
}

var (
	armMu sync.Mutex
	armed *Hardware
)

// Arm enables c exactly once and returns the process-wide handle. Calling Arm
// again with the same counter returns the existing handle without touching
// the hardware; calling it with a different counter is an error.
func Arm(c Counter, opts *Opts) (*Hardware, error) {
	if c == nil {
		return nil, errors.NotValidf("nil counter")
	}
	armMu.Lock()
	defer armMu.Unlock()
	if armed != nil {
		if armed.counter != c {
			return nil, errors.AlreadyExistsf("armed counter %v", armed.counter)
		}
		return armed, nil
	}
	if opts == nil {
		return nil, errors.NotValidf("nil options")
	}
	if opts.Clock <= 0 {
		return nil, errors.NotValidf("counter clock %s", opts.Clock)
	}
	modulus := opts.Modulus
	if modulus == 0 {
		modulus = math.MaxUint64
	}
	if err := c.Enable(ModePeriodicUp); err != nil {
		return nil, errors.Annotate(err, "timebase: enable counter")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"clock":   opts.Clock.String(),
		"modulus": modulus,
	}).Debug("timebase: counter armed")
	armed = &Hardware{counter: c, clock: opts.Clock, modulus: modulus}
	return armed, nil
}

// Clock returns the counter input frequency.
func (h *Hardware) Clock() physic.Frequency { return h.clock }

// Modulus returns the counter wrap value.
func (h *Hardware) Modulus() uint64 { return h.modulus }

// hertz is the clock rate as a plain number of ticks per second.
func (h *Hardware) hertz() float64 {
	return float64(h.clock) / float64(physic.Hertz)
}
