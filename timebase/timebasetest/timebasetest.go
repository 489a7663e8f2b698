// Package timebasetest provides a scripted counter for tests.
package timebasetest

import (
	"sync"

	"github.com/DrJosh9000/lcd/timebase"
)

// Counter is a fake timebase.Counter. Every Count returns Value and then
// advances it by Step, wrapping at Modulus when Modulus is non-zero.
type Counter struct {
	sync.Mutex
	Value   uint64
	Step    uint64
	Modulus uint64

	Enabled int // number of Enable calls
	Mode    timebase.Mode
	Reads   int // number of Count calls
}

// Enable records the call.
func (c *Counter) Enable(mode timebase.Mode) error {
	c.Lock()
	defer c.Unlock()
	c.Enabled++
	c.Mode = mode
	return nil
}

// Count implements timebase.Counter.
func (c *Counter) Count() uint64 {
	c.Lock()
	defer c.Unlock()
	c.Reads++
	v := c.Value
	c.Value += c.Step
	if c.Modulus != 0 {
		c.Value %= c.Modulus
	}
	return v
}

// Set moves the counter to v.
func (c *Counter) Set(v uint64) {
	c.Lock()
	defer c.Unlock()
	c.Value = v
}

func (c *Counter) String() string { return "timebasetest.Counter" }
