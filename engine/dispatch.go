package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/JeanRibes/midi-controller/shared"
	"github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
)

// SendFunc delivers a MIDI message to the transport.
type SendFunc func(midi.Message) error

// OutputWriter drives a hardware output pin.
type OutputWriter interface {
	Write(num int, value uint8) error
}

const maxOutput = 255

// Interpolate maps v in 0..127 linearly from off (v=0) to on (v=127),
// rounding to the nearest unit and clamping to 0..limit.
func Interpolate(on, off, v uint8, limit int) uint8 {
	out := float64(off) + float64(int(on)-int(off))*float64(v)/MaxValue
	r := int(math.Round(out))
	if r < 0 {
		r = 0
	}
	if r > limit {
		r = limit
	}
	return uint8(r)
}

func selectValue(on, off uint8, sig Signal, limit int) uint8 {
	switch sig.Kind {
	case SignalOn:
		return on
	case SignalOff:
		return off
	default:
		return Interpolate(on, off, sig.Value, limit)
	}
}

// Dispatcher materializes events and hands them to the MIDI or output sink.
type Dispatcher struct {
	pins   []Pin
	send   SendFunc
	out    OutputWriter
	logger *log.Logger
}

func NewDispatcher(pins []Pin, send SendFunc, out OutputWriter, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Dispatcher{pins: pins, send: send, out: out, logger: logger}
}

// Messages returns the MIDI messages ev produces for sig; nil for an
// OutputEvent or a Program "off".
func Messages(ev Event, sig Signal) []midi.Message {
	switch ev := ev.(type) {
	case NoteEvent:
		vel := selectValue(ev.OnVelocity, ev.OffVelocity, sig, MaxValue)
		switch {
		case sig.Kind == SignalOff && vel == 0:
			return []midi.Message{midi.NoteOff(ev.Channel, ev.Note)}
		case sig.Kind == SignalOff:
			return []midi.Message{midi.NoteOffVelocity(ev.Channel, ev.Note, vel)}
		default:
			return []midi.Message{midi.NoteOn(ev.Channel, ev.Note, vel)}
		}
	case ControllerEvent:
		val := selectValue(ev.OnValue, ev.OffValue, sig, MaxValue)
		return []midi.Message{midi.ControlChange(ev.Channel, ev.Controller, val)}
	case ProgramEvent:
		if sig.Kind != SignalOn {
			return nil
		}
		msb, lsb := shared.SplitBank(ev.Bank)
		return []midi.Message{
			midi.ControlChange(ev.Channel, shared.CCBankMSB, msb),
			midi.ControlChange(ev.Channel, shared.CCBankLSB, lsb),
			midi.ProgramChange(ev.Channel, ev.Program),
		}
	}
	return nil
}

// Dispatch delivers the concrete form of ev for sig.
func (d *Dispatcher) Dispatch(ev Event, sig Signal) error {
	if o, ok := ev.(OutputEvent); ok {
		return d.output(o, sig)
	}
	var errs error
	for _, msg := range Messages(ev, sig) {
		d.logger.Debug("send", "msg", msg, "signal", sig)
		if err := d.send(msg); err != nil {
			errs = errors.Join(errs, fmt.Errorf("send %s: %w", msg, err))
		}
	}
	return errs
}

func (d *Dispatcher) output(ev OutputEvent, sig Signal) error {
	p := d.pins[ev.Pin]
	val := selectValue(ev.OnValue, ev.OffValue, sig, maxOutput)
	if p.Type == DigitalOut && val > 0 {
		val = maxOutput
	}
	d.logger.Debug("output", "pin", ev.Pin, "hw", p.Num, "value", val, "signal", sig)
	if d.out == nil {
		return fmt.Errorf("output pin %d: no output writer", ev.Pin)
	}
	if err := d.out.Write(p.Num, val); err != nil {
		return fmt.Errorf("output pin %d (hw %d): %w", ev.Pin, p.Num, err)
	}
	return nil
}
