package lcd

import (
	"encoding/json"
	"io"

	"github.com/juju/errors"
)

// Config describes how the display is wired. It is fixed once New accepts it.
type Config struct {
	Board string `json:"board,omitempty"` // board name, see BoardByName

	// Data lines, least significant first: D4-D7 in 4-bit mode, D0-D7 in
	// 8-bit mode.
	Data      []PinDescriptor `json:"data"`
	RS        PinDescriptor   `json:"rs"` // register select
	RW        PinDescriptor   `json:"rw"` // read/write
	E         PinDescriptor   `json:"e"`  // enable
	Backlight *PinDescriptor  `json:"backlight,omitempty"`

	Rows     int  `json:"rows,omitempty"` // 1 or 2, default 2
	Cols     int  `json:"cols,omitempty"` // default 16
	TallFont bool `json:"tall_font,omitempty"`

	// Slowdown multiplies the bus cycle timings, see Timing.Scaled.
	Slowdown int `json:"slowdown,omitempty"`
}

// LoadConfig decodes a JSON config and fills in defaults.
func LoadConfig(r io.Reader) (*Config, error) {
	var c Config
	if err := DecodeJSON(r, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

// DecodeJSON decodes one JSON value from r into v, rejecting unknown fields.
// v is a *Config or a pointer to a struct embedding Config alongside its own
// settings. Defaults are filled in later by New.
func DecodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return errors.Annotate(dec.Decode(v), "lcd: decode config")
}

func (c *Config) applyDefaults() {
	if c.Rows == 0 {
		c.Rows = 2
	}
	if c.Cols == 0 {
		c.Cols = 16
	}
}

// Width is the number of data lines.
func (c *Config) Width() int { return len(c.Data) }

// Validate checks every line names a distinct free pin on the board and the
// geometry is addressable.
func (c *Config) Validate() error {
	board, err := BoardByName(c.Board)
	if err != nil {
		return err
	}
	if n := len(c.Data); n != 4 && n != 8 {
		return errors.NotValidf("lcd: %d data lines", n)
	}
	if c.Rows < 1 || c.Rows > 2 {
		return errors.NotValidf("lcd: %d rows", c.Rows)
	}
	if c.Cols < 1 || c.Cols > 40 {
		return errors.NotValidf("lcd: %d columns", c.Cols)
	}
	if c.Slowdown < 0 {
		return errors.NotValidf("lcd: slowdown %d", c.Slowdown)
	}
	seen := make(map[PinDescriptor]string)
	for _, l := range c.lines() {
		if err := board.Check(l.pin); err != nil {
			return errors.Annotatef(err, "lcd: %s line", l.name)
		}
		if other, dup := seen[l.pin]; dup {
			return errors.NotValidf("lcd: %s shared by %s and %s", l.pin, other, l.name)
		}
		seen[l.pin] = l.name
	}
	return nil
}

type line struct {
	name string
	pin  PinDescriptor
}

func (c *Config) lines() []line {
	ls := []line{{"RS", c.RS}, {"RW", c.RW}, {"E", c.E}}
	if c.Backlight != nil {
		ls = append(ls, line{"backlight", *c.Backlight})
	}
	first := 8 - len(c.Data)
	for i, d := range c.Data {
		ls = append(ls, line{dataName(first + i), d})
	}
	return ls
}

func dataName(i int) string {
	return "D" + string(rune('0'+i))
}
