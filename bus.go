package lcd

import (
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/DrJosh9000/lcd/timebase"
)

// TransferMode is the register select and read/write combination of one
// transfer.
type TransferMode uint8

const (
	WriteProgram TransferMode = iota // instruction register write
	WriteData                        // DD/CG RAM write
	ReadProgram                      // busy flag and address counter read
	ReadData                         // DD/CG RAM read
)

func (m TransferMode) data() bool { return m == WriteData || m == ReadData }
func (m TransferMode) read() bool { return m == ReadProgram || m == ReadData }

func (m TransferMode) String() string {
	switch m {
	case WriteProgram:
		return "write-program"
	case WriteData:
		return "write-data"
	case ReadProgram:
		return "read-program"
	case ReadData:
		return "read-data"
	}
	return "unknown"
}

// ErrBusState is returned when a bus step is attempted out of order.
var ErrBusState = errors.New("lcd: bus step out of order")

type busState uint8

const (
	busIdle busState = iota // E low, no transfer
	busHigh                 // E high, a unit is on the data lines
)

// DriveStrength is implemented by GPIO lines whose pad drive current can be
// set. The bus asks for 8mA so edges meet RiseTime and FallTime.
type DriveStrength interface {
	SetDrive(i physic.ElectricCurrent) error
}

const padDrive = 8 * physic.MilliAmpere

// Bus moves bytes over the parallel data lines with software timing. Every
// wait spins on the time source; a transfer cannot be abandoned once
// started.
type Bus struct {
	data      []gpio.PinIO // least significant first
	rs, rw, e gpio.PinIO

	clock  *timebase.Source
	timing Timing
	log    *logrus.Entry

	state busState
	mode  TransferMode
	input bool
}

func newBus(data []gpio.PinIO, rs, rw, e gpio.PinIO, clock *timebase.Source, timing Timing, log *logrus.Entry) *Bus {
	return &Bus{
		data:   data,
		rs:     rs,
		rw:     rw,
		e:      e,
		clock:  clock,
		timing: timing,
		log:    log,
	}
}

// units is the number of enable pulses per byte.
func (b *Bus) units() int { return 8 / len(b.data) }

// padConfigure drives p low as an output and sets its pad drive where the
// line supports it.
func padConfigure(p gpio.PinIO) error {
	if err := p.Out(gpio.Low); err != nil {
		return errors.Annotatef(err, "lcd: %s output", p)
	}
	if ds, ok := p.(DriveStrength); ok {
		if err := ds.SetDrive(padDrive); err != nil {
			return errors.Annotatef(err, "lcd: %s drive strength", p)
		}
	}
	return nil
}

// configure pad-configures every bus line.
func (b *Bus) configure() error {
	for _, p := range append([]gpio.PinIO{b.rs, b.rw, b.e}, b.data...) {
		if err := padConfigure(p); err != nil {
			return err
		}
	}
	b.input = false
	b.state = busIdle
	return nil
}

// direction switches the data lines between input and output.
func (b *Bus) direction(input bool) error {
	for _, p := range b.data {
		var err error
		if input {
			err = p.In(gpio.PullNoChange, gpio.NoEdge)
		} else {
			err = p.Out(gpio.Low)
		}
		if err != nil {
			return errors.Annotatef(err, "lcd: %s direction", p)
		}
	}
	b.input = input
	return nil
}

func (b *Bus) wait(d time.Duration) error {
	return errors.Trace(b.clock.WaitDuration(d))
}

func (b *Bus) enable(l gpio.Level) error {
	return errors.Annotatef(b.e.Out(l), "lcd: E %s", l)
}

// setup selects the register and direction, then raises E. It may follow a
// WriteNibble that left the bus open.
func (b *Bus) setup(m TransferMode) error {
	if err := b.rs.Out(gpio.Level(m.data())); err != nil {
		return errors.Annotatef(err, "lcd: RS")
	}
	if err := b.rw.Out(gpio.Level(m.read())); err != nil {
		return errors.Annotatef(err, "lcd: RW")
	}
	if err := b.wait(b.timing.AddressSetup - b.timing.RiseTime); err != nil {
		return err
	}
	if err := b.enable(gpio.High); err != nil {
		return err
	}
	b.state, b.mode = busHigh, m
	return b.wait(b.timing.enableDelay(m.read()))
}

// maintain ends the current unit and starts the next one. settle stretches
// the low phase so the controller can execute the byte just latched.
func (b *Bus) maintain(settle time.Duration) error {
	if b.state != busHigh {
		return errors.Annotatef(ErrBusState, "maintain while idle")
	}
	if err := b.wait(b.timing.DataSetup); err != nil {
		return err
	}
	if err := b.enable(gpio.Low); err != nil {
		return err
	}
	if err := b.wait(b.timing.lowTime() + settle); err != nil {
		return err
	}
	if err := b.enable(gpio.High); err != nil {
		return err
	}
	return b.wait(b.timing.enableDelay(b.mode.read()))
}

// stop latches the last unit and returns the bus to idle.
func (b *Bus) stop() error {
	if b.state != busHigh {
		return errors.Annotatef(ErrBusState, "stop while idle")
	}
	if err := b.wait(b.timing.DataSetup); err != nil {
		return err
	}
	if err := b.enable(gpio.Low); err != nil {
		return err
	}
	b.state = busIdle
	return b.wait(b.timing.holdTime())
}

// drive puts unit n of v on the data lines.
func (b *Bus) drive(v byte, n int) error {
	w := len(b.data)
	for p, pin := range b.data {
		if err := pin.Out(gpio.Level(v&(1<<(p+w*n)) != 0)); err != nil {
			return errors.Annotatef(err, "lcd: %s", pin)
		}
	}
	return nil
}

// sample reads unit n from the data lines into v.
func (b *Bus) sample(v *byte, n int) {
	w := len(b.data)
	for p, pin := range b.data {
		if pin.Read() == gpio.High {
			*v |= 1 << (p + w*n)
		}
	}
}

// Write sends data in one transfer, most significant unit first.
func (b *Bus) Write(m TransferMode, data ...byte) error {
	if m.read() {
		return errors.NotValidf("lcd: write in %s mode", m)
	}
	if len(data) == 0 {
		return errors.NotValidf("lcd: empty write")
	}
	if b.input {
		if err := b.direction(false); err != nil {
			return err
		}
	}
	if err := b.setup(m); err != nil {
		return err
	}
	last := len(data) - 1
	for i, v := range data {
		b.log.Tracef("lcd: %s %#02x", m, v)
		for n := b.units() - 1; n >= 0; n-- {
			if err := b.drive(v, n); err != nil {
				return err
			}
			if i == last && n == 0 {
				break
			}
			var settle time.Duration
			if n == 0 {
				settle = b.timing.Execute
			}
			if err := b.maintain(settle); err != nil {
				return err
			}
		}
	}
	return b.stop()
}

// Read fills buf in one transfer.
func (b *Bus) Read(m TransferMode, buf []byte) error {
	if !m.read() {
		return errors.NotValidf("lcd: read in %s mode", m)
	}
	if len(buf) == 0 {
		return errors.NotValidf("lcd: empty read")
	}
	if !b.input {
		if err := b.direction(true); err != nil {
			return err
		}
	}
	if err := b.setup(m); err != nil {
		return err
	}
	last := len(buf) - 1
	for i := range buf {
		buf[i] = 0
		for n := b.units() - 1; n >= 0; n-- {
			b.sample(&buf[i], n)
			if i == last && n == 0 {
				break
			}
			var settle time.Duration
			if n == 0 {
				settle = b.timing.Execute
			}
			if err := b.maintain(settle); err != nil {
				return err
			}
		}
		b.log.Tracef("lcd: %s %#02x", m, buf[i])
	}
	return b.stop()
}

// WriteNibble sends the high unit of code as an instruction. It is only used
// while waking the controller, before the bus width has been negotiated.
// settle is the time the controller needs to execute code. With stop false
// the bus is left open after settling and the next transfer continues it.
func (b *Bus) WriteNibble(code byte, stop bool, settle time.Duration) error {
	if b.input {
		if err := b.direction(false); err != nil {
			return err
		}
	}
	if err := b.setup(WriteProgram); err != nil {
		return err
	}
	b.log.Tracef("lcd: wake %#02x", code)
	if err := b.drive(code, b.units()-1); err != nil {
		return err
	}
	if !stop {
		return b.maintain(settle)
	}
	if err := b.stop(); err != nil {
		return err
	}
	return b.wait(settle)
}
