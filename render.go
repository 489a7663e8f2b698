package lcd

import (
	"github.com/juju/errors"
)

const (
	// EscapeMarker followed by a digit 0-7 prints that custom character.
	EscapeMarker = '`'

	// MaxText is the longest text Print and Write accept.
	MaxText = 32

	customSlots = 8
)

// Pattern is a custom character bitmap, one 5-bit row per byte, top first.
type Pattern [8]byte

// render streams p as RAM writes, calling emit for every transfer. In text
// mode a newline jumps to the second line, whitespace other than space is
// dropped and EscapeMarker plus a digit selects a custom character. It
// returns how many bytes of p were consumed.
func render(p []byte, text bool, emit func(m TransferMode, b byte) error) (int, error) {
	for i := 0; i < len(p); i++ {
		start, c := i, p[i]
		var err error
		switch {
		case !text:
			err = emit(WriteData, c)
		case c == '\n':
			err = emit(WriteProgram, JumpLine)
		case c == ' ':
			err = emit(WriteData, c)
		case c == '\t', c == '\v', c == '\f', c == '\r':
		case c == EscapeMarker && i+1 < len(p) && p[i+1] >= '0' && p[i+1] < '0'+customSlots:
			i++
			err = emit(WriteData, p[i]-'0')
		default:
			err = emit(WriteData, c)
		}
		if err != nil {
			return start, err
		}
	}
	return len(p), nil
}

// Render writes p at the current address. In raw mode every byte is written
// verbatim.
func (d *Dev) Render(p []byte, text bool) error {
	if len(p) == 0 {
		return errors.NotValidf("lcd: empty buffer")
	}
	_, err := render(p, text, d.send)
	return err
}

// Print clears the display and writes s from the home position.
func (d *Dev) Print(s string) error {
	if len(s) == 0 || len(s) > MaxText {
		return errors.NotValidf("lcd: text length %d", len(s))
	}
	if err := d.Clear(); err != nil {
		return err
	}
	_, err := render([]byte(s), true, d.send)
	return err
}

// Write appends p as text at the current cursor.
func (d *Dev) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > MaxText {
		return 0, errors.NotValidf("lcd: text length %d", len(p))
	}
	return render(p, true, d.send)
}

// NewCustomChar stores pat in CG RAM slot 0-7. Print it with EscapeMarker
// followed by the slot digit. The address counter is left in CG RAM, so move
// the cursor (or Clear) before writing text.
func (d *Dev) NewCustomChar(slot int, pat Pattern) error {
	if slot < 0 || slot >= customSlots {
		return errors.NotValidf("lcd: custom character slot %d", slot)
	}
	if err := d.SetAddress(uint8(slot*len(pat)), false); err != nil {
		return err
	}
	return d.Render(pat[:], false)
}
