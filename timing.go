package lcd

import (
	"time"

	"github.com/juju/errors"
)

// Timing holds every delay the bus and the device wait for. Bus timings are
// the HD44780 datasheet minimums; RiseTime and FallTime are the worst-case
// edge times of the driving GPIO lines.
type Timing struct {
	// Power-on initialisation.
	PowerOn    time.Duration // after Vcc rises, before the first wake nibble
	FirstWake  time.Duration // after the first wake nibble
	SecondWake time.Duration // after the second wake nibble

	// Bus cycle.
	PulseWidth   time.Duration // PWEH, E high
	CycleTime    time.Duration // tcycE, rising edge to rising edge
	DataSetup    time.Duration // tDSW, data stable before E falls
	DataHold     time.Duration // tH, data stable after E falls
	AddressSetup time.Duration // tAS, RS and R/W stable before E rises
	AddressHold  time.Duration // tAH, RS and R/W stable after E falls
	ReadDelay    time.Duration // tDDR, E high to read data valid

	RiseTime time.Duration
	FallTime time.Duration

	// Instruction execution, waited after each transfer.
	Execute      time.Duration
	ClearExecute time.Duration // clear display and return home
}

// DefaultTiming is the HD44780 datasheet at 5V driven from 8mA pads.
var DefaultTiming = Timing{
	PowerOn:    49 * time.Millisecond,
	FirstWake:  4500 * time.Microsecond,
	SecondWake: 150 * time.Microsecond,

	PulseWidth:   200 * time.Nanosecond,
	CycleTime:    410 * time.Nanosecond,
	DataSetup:    45 * time.Nanosecond,
	DataHold:     15 * time.Nanosecond,
	AddressSetup: 35 * time.Nanosecond,
	AddressHold:  15 * time.Nanosecond,
	ReadDelay:    800 * time.Nanosecond,

	RiseTime: 13 * time.Nanosecond,
	FallTime: 14 * time.Nanosecond,

	Execute:      40 * time.Microsecond,
	ClearExecute: 1600 * time.Microsecond,
}

// Scaled returns t with the bus cycle timings multiplied by factor. Slow or
// long-wired displays often need factors in the thousands. Factors below 2
// return t unchanged.
func (t Timing) Scaled(factor int) Timing {
	if factor < 2 {
		return t
	}
	f := time.Duration(factor)
	t.PulseWidth *= f
	t.CycleTime *= f
	t.DataSetup *= f
	t.DataHold *= f
	t.AddressSetup *= f
	t.AddressHold *= f
	return t
}

// writeDelay is how long E stays high after rising on a write before the
// data setup window before the falling edge begins.
func (t Timing) writeDelay() time.Duration {
	return t.RiseTime + t.PulseWidth - t.DataSetup
}

// enableDelay is the wait after E rises for the given direction. Reads wait
// for the controller to drive the data lines.
func (t Timing) enableDelay(read bool) time.Duration {
	if read {
		return t.ReadDelay
	}
	return t.writeDelay()
}

// lowTime is the E low time that keeps the cycle at or above CycleTime.
func (t Timing) lowTime() time.Duration {
	return t.CycleTime - t.writeDelay()
}

func (t Timing) holdTime() time.Duration {
	h := t.DataHold
	if t.AddressHold > h {
		h = t.AddressHold
	}
	return h + t.FallTime
}

// Validate checks the derived waits are all non-negative.
func (t Timing) Validate() error {
	switch {
	case t.PulseWidth <= 0 || t.CycleTime <= 0:
		return errors.NotValidf("timing: non-positive pulse or cycle")
	case t.DataSetup < 0 || t.DataHold < 0 || t.AddressSetup < 0 || t.AddressHold < 0:
		return errors.NotValidf("timing: negative setup or hold")
	case t.AddressSetup < t.RiseTime:
		return errors.NotValidf("timing: address setup %v shorter than rise time %v", t.AddressSetup, t.RiseTime)
	case t.writeDelay() < 0:
		return errors.NotValidf("timing: data setup %v longer than pulse", t.DataSetup)
	case t.lowTime() < 0:
		return errors.NotValidf("timing: cycle %v shorter than write pulse %v", t.CycleTime, t.writeDelay())
	}
	return nil
}
