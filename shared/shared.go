package shared

import "fmt"

type Event int

const (
	Quit Event = iota
	ProgramChange
)

func (e Event) String() string {
	switch e {
	case Quit:
		return "quit"
	case ProgramChange:
		return "program change"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Message travels from the MIDI input callback to the engine loop.
type Message struct {
	Type    Event
	Channel uint8
	Program uint8
	Bank    uint16
}

// Bank select controllers.
const (
	CCBankMSB = 0
	CCBankLSB = 32
)

// SplitBank returns the bank select MSB and LSB. Banks are written as
// 0xMMLL, both halves 7-bit.
func SplitBank(bank uint16) (msb, lsb uint8) {
	return uint8(bank >> 8), uint8(bank)
}

func JoinBank(msb, lsb uint8) uint16 {
	return uint16(msb&0x7f)<<8 | uint16(lsb&0x7f)
}

// ValidBank reports whether both halves of bank fit in a MIDI data byte.
func ValidBank(bank uint16) bool {
	msb, lsb := SplitBank(bank)
	return msb <= 0x7f && lsb <= 0x7f
}
