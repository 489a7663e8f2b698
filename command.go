package lcd

// Fixed instructions.
const (
	ClearDisplay byte = 0b00000001 // clear DDRAM and return the cursor home
	ReturnHome   byte = 0b00000010 // cursor home, undo display shift
	JumpLine     byte = 0xc0       // DDRAM address 0x40, start of the second line

	wakeCode  byte = 0b00110000 // sent three times before the bus width is known
	beginCode byte = 0b00100000 // switches the controller to 4-bit transfers
)

// FunctionSet sets the interface data length, number of display lines, and
// character font.
// eightbit = false means 4-bit operation.
// twolines = false means 1 display line.
// tallfont = false means 5x8 dots instead of 5x10.
func FunctionSet(eightbit, twolines, tallfont bool) byte {
	a := uint8(0b00100000)
	if eightbit {
		a |= 0b00010000
	}
	if twolines {
		a |= 0b00001000
	}
	if tallfont {
		a |= 0b00000100
	}
	return a
}

// DisplayControl turns on/off the whole display, cursor, or cursor-blinking.
func DisplayControl(display, cursor, blink bool) byte {
	a := uint8(0b00001000)
	if display {
		a |= 0b00000100
	}
	if cursor {
		a |= 0b00000010
	}
	if blink {
		a |= 0b00000001
	}
	return a
}

// EntryMode sets the cursor direction after each data write and whether the
// display shifts along with it.
func EntryMode(right, shift bool) byte {
	a := uint8(0b00000100)
	if right {
		a |= 0b00000010
	}
	if shift {
		a |= 0b00000001
	}
	return a
}

// CursorShift moves the cursor, or shifts the whole display, by one position.
func CursorShift(display, right bool) byte {
	a := uint8(0b00010000)
	if display {
		a |= 0b00001000
	}
	if right {
		a |= 0b00000100
	}
	return a
}

// AddressCommand sets the address counter into DD RAM (0 <= addr < 128) or
// CG RAM (0 <= addr < 64).
func AddressCommand(addr uint8, ddram bool) byte {
	if ddram {
		return addr | 0b10000000
	}
	return addr | 0b01000000
}

// Status is the busy flag and address counter read back from the controller.
type Status uint8

// Busy reports whether the controller is still executing an instruction.
func (s Status) Busy() bool { return s&0b10000000 != 0 }

// Address is the current address counter.
func (s Status) Address() uint8 { return uint8(s) & 0x7f }
