package lcd

import (
	"fmt"
	"strings"

	"github.com/juju/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// PinDescriptor identifies one GPIO line: the clock gate feeding its port,
// the port, and the pin index within the port.
type PinDescriptor struct {
	Clock string // e.g. "GPIOB"
	Port  string // e.g. "B"
	Pin   int    // 0 - 7 on most boards
}

// Pin returns the descriptor for port and pin, with the clock gate named after
// the port.
func Pin(port string, pin int) PinDescriptor {
	return PinDescriptor{Clock: "GPIO" + port, Port: port, Pin: pin}
}

// String returns the short name, e.g. "PB7".
func (d PinDescriptor) String() string {
	return fmt.Sprintf("P%s%d", d.Port, d.Pin)
}

// IsZero reports whether d is unset.
func (d PinDescriptor) IsZero() bool {
	return d == PinDescriptor{}
}

// MarshalText encodes d in its short form.
func (d PinDescriptor) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText parses the short form "P<port><pin>", e.g. "PE3".
func (d *PinDescriptor) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	if len(s) < 3 || s[0] != 'P' {
		return errors.NotValidf("pin %q", string(b))
	}
	port := s[1:2]
	if port[0] < 'A' || port[0] > 'Z' {
		return errors.NotValidf("pin %q port", string(b))
	}
	var n int
	for _, c := range s[2:] {
		if c < '0' || c > '9' {
			return errors.NotValidf("pin %q index", string(b))
		}
		n = n*10 + int(c-'0')
	}
	*d = Pin(port, n)
	return nil
}

// Board lists the GPIO lines a microcontroller offers and the ones taken by
// other on-chip functions.
type Board struct {
	Name     string
	Ports    string // port letters
	Lines    int    // lines per port
	Reserved []PinDescriptor
}

// TM4C123 is the TI Tiva C launchpad. Port A carries the debug UART and SSI0,
// PB2/PB3 the I2C0 bus, PC0-PC3 JTAG, and PD7/PF0 are NMI-locked.
var TM4C123 = &Board{
	Name:  "tm4c123",
	Ports: "ABCDEF",
	Lines: 8,
	Reserved: []PinDescriptor{
		Pin("A", 0), Pin("A", 1), Pin("A", 2), Pin("A", 3), Pin("A", 4), Pin("A", 5),
		Pin("B", 2), Pin("B", 3),
		Pin("C", 0), Pin("C", 1), Pin("C", 2), Pin("C", 3),
		Pin("D", 7),
		Pin("F", 0),
	},
}

var boards = map[string]*Board{
	TM4C123.Name: TM4C123,
}

// BoardByName returns a known board. The empty name selects TM4C123.
func BoardByName(name string) (*Board, error) {
	if name == "" {
		return TM4C123, nil
	}
	b, ok := boards[strings.ToLower(name)]
	if !ok {
		return nil, errors.NotFoundf("board %q", name)
	}
	return b, nil
}

// Check returns an error if d does not name a free GPIO line on the board.
func (b *Board) Check(d PinDescriptor) error {
	if len(d.Port) != 1 || !strings.Contains(b.Ports, d.Port) {
		return errors.NotValidf("%s: port %q on %s", d, d.Port, b.Name)
	}
	if d.Clock != "GPIO"+d.Port {
		return errors.NotValidf("%s: clock %q", d, d.Clock)
	}
	if d.Pin < 0 || d.Pin >= b.Lines {
		return errors.NotValidf("%s: pin index %d", d, d.Pin)
	}
	for _, r := range b.Reserved {
		if r.Port == d.Port && r.Pin == d.Pin {
			return errors.NotValidf("%s: reserved pin", d)
		}
	}
	return nil
}

// Resolver maps pin descriptors onto GPIO lines.
type Resolver interface {
	Resolve(d PinDescriptor) (gpio.PinIO, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(d PinDescriptor) (gpio.PinIO, error)

// Resolve calls f(d).
func (f ResolverFunc) Resolve(d PinDescriptor) (gpio.PinIO, error) { return f(d) }

// Registry resolves descriptors by their short name through the periph GPIO
// registry. Use gpioreg.RegisterAlias to map "PB7" and friends onto host pin
// names.
var Registry Resolver = ResolverFunc(func(d PinDescriptor) (gpio.PinIO, error) {
	p := gpioreg.ByName(d.String())
	if p == nil {
		return nil, errors.NotFoundf("gpio %s", d)
	}
	return p, nil
})
