// Package lcd drives HD44780-compatible character LCD modules through GPIO
// pins (using periph.io), with every bus delay timed by busy-waiting on a
// hardware counter.
//
// The display is wired in 4-bit (D4-D7) or 8-bit (D0-D7) mode with the R/W
// line connected, so the busy flag and RAM can be read back.
package lcd // import "github.com/DrJosh9000/lcd"

import (
	"fmt"
	"time"

	"github.com/juju/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"

	"github.com/DrJosh9000/lcd/timebase"
)

// Opts are the optional parts of New.
type Opts struct {
	Timing   *Timing        // defaults to DefaultTiming, scaled by Config.Slowdown
	Resolver Resolver       // defaults to Registry
	Logger   *logrus.Logger // defaults to the logrus standard logger
}

// Dev is a character LCD on a parallel bus. It is not safe for concurrent
// use.
type Dev struct {
	cfg       Config
	bus       *Bus
	backlight gpio.PinIO // nil when not wired
	clock     *timebase.Source
	timing    Timing
	log       *logrus.Entry

	display, cursor, blink bool
}

// New checks cfg, resolves its pins and configures them as outputs. No line
// is driven until the whole configuration is known to be valid. Call Init
// once the module has power.
func New(cfg *Config, hw *timebase.Hardware, opts *Opts) (*Dev, error) {
	if cfg == nil {
		return nil, errors.NotValidf("lcd: nil config")
	}
	if opts == nil {
		opts = &Opts{}
	}
	c := *cfg
	c.Data = append([]PinDescriptor(nil), cfg.Data...)
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	timing := DefaultTiming
	if opts.Timing != nil {
		timing = *opts.Timing
	}
	timing = timing.Scaled(c.Slowdown)
	if err := timing.Validate(); err != nil {
		return nil, err
	}

	clock, err := timebase.NewSource(hw, timebase.Nanosecond)
	if err != nil {
		return nil, errors.Annotate(err, "lcd: time source")
	}

	res := opts.Resolver
	if res == nil {
		res = Registry
	}
	resolve := func(d PinDescriptor) (gpio.PinIO, error) {
		p, err := res.Resolve(d)
		if err == nil && p == nil {
			err = errors.NotFoundf("gpio %s", d)
		}
		return p, errors.Trace(err)
	}
	var rs, rw, e, bl gpio.PinIO
	if rs, err = resolve(c.RS); err != nil {
		return nil, err
	}
	if rw, err = resolve(c.RW); err != nil {
		return nil, err
	}
	if e, err = resolve(c.E); err != nil {
		return nil, err
	}
	if c.Backlight != nil {
		if bl, err = resolve(*c.Backlight); err != nil {
			return nil, err
		}
	}
	data := make([]gpio.PinIO, len(c.Data))
	for i, d := range c.Data {
		if data[i], err = resolve(d); err != nil {
			return nil, err
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	d := &Dev{
		cfg:       c,
		backlight: bl,
		clock:     clock,
		timing:    timing,
		log:       logger.WithField("dev", "lcd"),
	}
	d.bus = newBus(data, rs, rw, e, clock, timing, d.log)
	if err := d.bus.configure(); err != nil {
		return nil, err
	}
	if bl != nil {
		if err := padConfigure(bl); err != nil {
			return nil, errors.Annotate(err, "lcd: backlight")
		}
	}
	d.log.WithFields(logrus.Fields{
		"width": c.Width(),
		"rows":  c.Rows,
		"cols":  c.Cols,
	}).Debug("lcd: configured")
	return d, nil
}

// Init runs the power-on sequence: three wake-up transmissions, the bus
// width, then function set, display on with a blinking cursor, clear, and
// left-to-right entry.
func (d *Dev) Init() error {
	d.log.Debug("lcd: waiting for power-on")
	if err := d.clock.WaitDuration(d.timing.PowerOn); err != nil {
		return err
	}
	for i, pause := range []time.Duration{d.timing.FirstWake, d.timing.SecondWake, d.timing.Execute} {
		if err := d.bus.WriteNibble(wakeCode, true, pause); err != nil {
			return errors.Annotatef(err, "lcd: wake %d", i+1)
		}
	}

	eightbit := d.cfg.Width() == 8
	if !eightbit {
		if err := d.bus.WriteNibble(beginCode, false, d.timing.Execute); err != nil {
			return errors.Annotate(err, "lcd: 4-bit mode")
		}
	}
	d.display, d.cursor, d.blink = true, true, true
	fs := FunctionSet(eightbit, d.cfg.Rows == 2, d.cfg.TallFont)
	if err := d.bus.Write(WriteProgram, fs, DisplayControl(d.display, d.cursor, d.blink)); err != nil {
		return errors.Annotate(err, "lcd: function set")
	}
	if err := d.clock.WaitDuration(d.timing.Execute); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.SetEntryMode(true, false); err != nil {
		return err
	}
	d.log.Debug("lcd: initialised")
	return nil
}

// send transfers a single byte and waits for the controller to execute it.
func (d *Dev) send(m TransferMode, b byte) error {
	if err := d.bus.Write(m, b); err != nil {
		return err
	}
	settle := d.timing.Execute
	if m == WriteProgram && (b == ClearDisplay || b == ReturnHome) {
		settle = d.timing.ClearExecute
	}
	return d.clock.WaitDuration(settle)
}

// Command performs a function or sets an address for the next write.
func (d *Dev) Command(a byte) error {
	return d.send(WriteProgram, a)
}

// WriteData writes a value to CG RAM or DD RAM.
func (d *Dev) WriteData(b byte) error {
	return d.send(WriteData, b)
}

// Clear clears the display and returns the cursor to the home position.
func (d *Dev) Clear() error {
	return d.Command(ClearDisplay)
}

// Home returns the cursor to the home position and resets the display shift.
func (d *Dev) Home() error {
	return d.Command(ReturnHome)
}

// SetDisplay turns the whole display on or off, keeping the cursor settings.
func (d *Dev) SetDisplay(on bool) error {
	return d.displayControl(on, d.cursor, d.blink)
}

// SetCursorVisible shows or hides the underline cursor.
func (d *Dev) SetCursorVisible(on bool) error {
	return d.displayControl(d.display, on, d.blink)
}

// SetBlink turns cursor-position blinking on or off.
func (d *Dev) SetBlink(on bool) error {
	return d.displayControl(d.display, d.cursor, on)
}

func (d *Dev) displayControl(display, cursor, blink bool) error {
	if err := d.Command(DisplayControl(display, cursor, blink)); err != nil {
		return err
	}
	d.display, d.cursor, d.blink = display, cursor, blink
	return nil
}

// SetEntryMode sets the data entry direction and whether to also shift.
func (d *Dev) SetEntryMode(right, shift bool) error {
	return d.Command(EntryMode(right, shift))
}

// Shift moves the cursor, or the whole display when display is true, one
// position left or right.
func (d *Dev) Shift(display, right bool) error {
	return d.Command(CursorShift(display, right))
}

// SetCursor moves the cursor to column x of row y.
func (d *Dev) SetCursor(x, y int) error {
	if x < 0 || x >= d.cfg.Cols || y < 0 || y >= d.cfg.Rows {
		return errors.NotValidf("lcd: cursor (%d,%d) on %dx%d", x, y, d.cfg.Cols, d.cfg.Rows)
	}
	return d.SetAddress(uint8(y<<6|x), true)
}

// Backlight switches the backlight, if its enable line is wired.
func (d *Dev) Backlight(on bool) error {
	if d.backlight == nil {
		return errors.NotSupportedf("lcd: backlight control")
	}
	return errors.Annotatef(d.backlight.Out(gpio.Level(on)), "lcd: backlight")
}

// Halt turns the display and backlight off.
func (d *Dev) Halt() error {
	err := d.SetDisplay(false)
	if d.backlight != nil {
		if berr := d.Backlight(false); err == nil {
			err = berr
		}
	}
	return err
}

func (d *Dev) String() string {
	return fmt.Sprintf("lcd.Dev{%d-bit %dx%d}", d.cfg.Width(), d.cfg.Cols, d.cfg.Rows)
}

var _ conn.Resource = &Dev{}
