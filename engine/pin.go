package engine

import "fmt"

type PinType int

const (
	Analog PinType = iota
	Digital
	DigitalPullup
	AnalogOut
	DigitalOut
)

func (t PinType) String() string {
	switch t {
	case Analog:
		return "analog"
	case Digital:
		return "digital"
	case DigitalPullup:
		return "digital_pullup"
	case AnalogOut:
		return "analog_out"
	case DigitalOut:
		return "digital_out"
	default:
		return fmt.Sprintf("PinType(%d)", int(t))
	}
}

// IsInput reports whether the scanner polls pins of this type.
func (t PinType) IsInput() bool {
	return t == Analog || t == Digital || t == DigitalPullup
}

func (t PinType) IsOutput() bool {
	return t == AnalogOut || t == DigitalOut
}

func (t PinType) isDigital() bool {
	return t == Digital || t == DigitalPullup
}

// Pin describes one physical input or output. Pins are referenced by their
// index in the pin table, never by hardware number.
type Pin struct {
	Type PinType
	Num  int // hardware pin number
	Min  int // calibration range, Min > Max for a reversed sensor
	Max  int
	// Curve bends the calibration, 0 is linear.
	Curve float64
	// Hysteresis lowers the release threshold below OnThreshold.
	Hysteresis uint8
}
