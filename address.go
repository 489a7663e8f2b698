package lcd

import (
	"github.com/juju/errors"
)

// SetAddress points the address counter into DD RAM (0 <= addr < 128) or CG
// RAM (0 <= addr < 64).
func (d *Dev) SetAddress(addr uint8, ddram bool) error {
	if ddram && addr >= 0x80 || !ddram && addr >= 0x40 {
		return errors.NotValidf("lcd: address %#02x (ddram=%t)", addr, ddram)
	}
	return d.Command(AddressCommand(addr, ddram))
}

// ReadStatus reads the busy flag and address counter. It does not wait for
// the controller to become ready; poll Busy where that matters.
func (d *Dev) ReadStatus() (Status, error) {
	var buf [1]byte
	if err := d.bus.Read(ReadProgram, buf[:]); err != nil {
		return 0, err
	}
	return Status(buf[0]), nil
}

// Busy reports the busy flag.
func (d *Dev) Busy() (bool, error) {
	s, err := d.ReadStatus()
	return s.Busy(), err
}

// AddressCounter reads the current address counter.
func (d *Dev) AddressCounter() (uint8, error) {
	s, err := d.ReadStatus()
	return s.Address(), err
}

// ReadRAM reads len(buf) bytes of DD RAM or CG RAM starting at addr. The
// address counter is left just past the last byte read.
func (d *Dev) ReadRAM(addr uint8, ddram bool, buf []byte) error {
	if len(buf) == 0 {
		return errors.NotValidf("lcd: empty RAM read")
	}
	if err := d.SetAddress(addr, ddram); err != nil {
		return err
	}
	return d.bus.Read(ReadData, buf)
}
