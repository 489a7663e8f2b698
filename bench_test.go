package lcd

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/DrJosh9000/lcd/timebase"
	"github.com/DrJosh9000/lcd/timebase/timebasetest"
)

var (
	testCounter = &timebasetest.Counter{Step: 5000}
	testHWOnce  sync.Once
	testHW      *timebase.Hardware
)

// hardware arms the shared fake counter: 1GHz, so one tick is a nanosecond.
func hardware(t *testing.T) *timebase.Hardware {
	t.Helper()
	testHWOnce.Do(func() {
		hw, err := timebase.Arm(testCounter, &timebase.Opts{Clock: physic.GigaHertz})
		if err != nil {
			t.Fatalf("Arm() error = %v", err)
		}
		testHW = hw
	})
	return testHW
}

// withStep sets how far the fake counter advances per read for the rest of
// the test.
func withStep(t *testing.T, step uint64) {
	t.Helper()
	testCounter.Lock()
	prev := testCounter.Step
	testCounter.Step = step
	testCounter.Unlock()
	t.Cleanup(func() {
		testCounter.Lock()
		testCounter.Step = prev
		testCounter.Unlock()
	})
}

// peek reads the fake counter without advancing it.
func peek() uint64 {
	testCounter.Lock()
	defer testCounter.Unlock()
	return testCounter.Value
}

// unit is what the controller latched on one falling edge of E.
type unit struct {
	rs, rw bool
	value  byte
}

// edge is one E transition stamped with the counter.
type edge struct {
	level gpio.Level
	at    uint64
}

// bench models an HD44780 on gpiotest pins: it latches the data lines on
// every falling edge of E and, in read mode, drives queued units onto them
// on every rising edge.
type bench struct {
	rs, rw, e, bl *probe
	data          []*probe

	units []unit
	edges []edge
	queue []byte // units to present on reads
}

// probe is a gpiotest.Pin that reports to the bench.
type probe struct {
	*gpiotest.Pin
	b     *bench
	input bool
	outs  int
	drive physic.ElectricCurrent
}

func (p *probe) Out(l gpio.Level) error {
	prev := p.Pin.Read()
	p.input = false
	p.outs++
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p == p.b.e && prev != l {
		p.b.enable(l)
	}
	return nil
}

func (p *probe) In(pull gpio.Pull, e gpio.Edge) error {
	p.input = true
	return nil
}

func (p *probe) SetDrive(i physic.ElectricCurrent) error {
	p.drive = i
	return nil
}

func (b *bench) enable(l gpio.Level) {
	b.edges = append(b.edges, edge{level: l, at: peek()})
	if l == gpio.High {
		if b.rw.Pin.Read() == gpio.High && len(b.queue) > 0 {
			v := b.queue[0]
			b.queue = b.queue[1:]
			for i, d := range b.data {
				d.Pin.L = gpio.Level(v&(1<<i) != 0)
			}
		}
		return
	}
	var v byte
	for i, d := range b.data {
		if d.Pin.Read() == gpio.High {
			v |= 1 << i
		}
	}
	b.units = append(b.units, unit{
		rs:    bool(b.rs.Pin.Read()),
		rw:    bool(b.rw.Pin.Read()),
		value: v,
	})
}

// respond queues bytes for the next reads, split into units MSB first.
func (b *bench) respond(bs ...byte) {
	w := len(b.data)
	for _, v := range bs {
		for n := 8/w - 1; n >= 0; n-- {
			b.queue = append(b.queue, v>>(w*n)&(1<<w-1))
		}
	}
}

// transfer is a whole byte reassembled from units.
type transfer struct {
	mode  TransferMode
	value byte
}

// transfers reassembles the latched units into bytes.
func (b *bench) transfers(t *testing.T) []transfer {
	t.Helper()
	w := len(b.data)
	per := 8 / w
	if len(b.units)%per != 0 {
		t.Fatalf("%d units do not make whole bytes", len(b.units))
	}
	var out []transfer
	for i := 0; i < len(b.units); i += per {
		var v byte
		for n := 0; n < per; n++ {
			v = v<<w | b.units[i+n].value
		}
		u := b.units[i]
		m := WriteProgram
		switch {
		case u.rs && u.rw:
			m = ReadData
		case u.rw:
			m = ReadProgram
		case u.rs:
			m = WriteData
		}
		out = append(out, transfer{m, v})
	}
	return out
}

// writes returns only the write transfers.
func (b *bench) writes(t *testing.T) []transfer {
	t.Helper()
	var out []transfer
	for _, tr := range b.transfers(t) {
		if !tr.mode.read() {
			out = append(out, tr)
		}
	}
	return out
}

func (b *bench) reset() {
	b.units, b.edges, b.queue = nil, nil, nil
}

func (b *bench) all() []*probe {
	ps := append([]*probe{b.rs, b.rw, b.e, b.bl}, b.data...)
	return ps
}

func (b *bench) newProbe(name string, num int) *probe {
	return &probe{Pin: &gpiotest.Pin{N: name, Num: num}, b: b}
}

// resolver hands out the bench probes by descriptor.
func (b *bench) resolver(cfg *Config) Resolver {
	pins := map[PinDescriptor]*probe{
		cfg.RS: b.rs,
		cfg.RW: b.rw,
		cfg.E:  b.e,
	}
	if cfg.Backlight != nil {
		pins[*cfg.Backlight] = b.bl
	}
	for i, d := range cfg.Data {
		pins[d] = b.data[i]
	}
	return ResolverFunc(func(d PinDescriptor) (gpio.PinIO, error) {
		p, ok := pins[d]
		if !ok {
			return nil, nil
		}
		return p, nil
	})
}

// wiring from the TM4C123 launchpad build: RS B7, RW F4, E E3, backlight
// B6, D4-D7 on E2 E1 E0 D6.
func config4() *Config {
	bl := Pin("B", 6)
	return &Config{
		Data:      []PinDescriptor{Pin("E", 2), Pin("E", 1), Pin("E", 0), Pin("D", 6)},
		RS:        Pin("B", 7),
		RW:        Pin("F", 4),
		E:         Pin("E", 3),
		Backlight: &bl,
	}
}

func config8() *Config {
	c := config4()
	c.Data = []PinDescriptor{
		Pin("B", 0), Pin("B", 1), Pin("B", 4), Pin("B", 5),
		Pin("E", 2), Pin("E", 1), Pin("E", 0), Pin("D", 6),
	}
	return c
}

func newBench(width int) *bench {
	b := &bench{}
	b.rs = b.newProbe("RS", 1)
	b.rw = b.newProbe("RW", 2)
	b.e = b.newProbe("E", 3)
	b.bl = b.newProbe("BL", 4)
	for i := 0; i < width; i++ {
		b.data = append(b.data, b.newProbe(dataName(8-width+i), 10+i))
	}
	return b
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newDev builds a device on a fresh bench without running Init.
func newDev(t *testing.T, cfg *Config) (*Dev, *bench) {
	t.Helper()
	b := newBench(len(cfg.Data))
	d, err := New(cfg, hardware(t), &Opts{Resolver: b.resolver(cfg), Logger: quietLogger()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.reset()
	return d, b
}
