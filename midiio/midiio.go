package midiio

import (
	"fmt"
	"sync"

	"github.com/JeanRibes/midi-controller/engine"
	"github.com/JeanRibes/midi-controller/shared"
	"github.com/charmbracelet/log"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

const virtualName = "midi-controller"

// OpenOut finds the named output port. When it is missing and virtual is
// set, a virtual port is opened instead.
func OpenOut(name string, virtual bool, logger *log.Logger) (drivers.Out, error) {
	out, err := midi.FindOutPort(name)
	if err == nil {
		return out, nil
	}
	if !virtual {
		return nil, fmt.Errorf("output %q: %w", name, err)
	}
	logger.Warn("can't find output, opening a virtual one", "output", name)
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, fmt.Errorf("output %q: no rtmidi driver", name)
	}
	return drv.OpenVirtualOut(virtualName)
}

func OpenIn(name string, virtual bool, logger *log.Logger) (drivers.In, error) {
	in, err := midi.FindInPort(name)
	if err == nil {
		return in, nil
	}
	if !virtual {
		return nil, fmt.Errorf("input %q: %w", name, err)
	}
	logger.Warn("can't find input, opening a virtual one", "input", name)
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, fmt.Errorf("input %q: no rtmidi driver", name)
	}
	return drv.OpenVirtualIn(virtualName)
}

// Sender returns a send function for out that is safe to call from the
// engine and the input callback at the same time.
func Sender(out drivers.Out) (engine.SendFunc, error) {
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, err
	}
	var mu sync.Mutex
	return func(msg midi.Message) error {
		mu.Lock()
		defer mu.Unlock()
		return send(msg)
	}, nil
}

// Ports lists the MIDI input and output port names.
func Ports() (ins, outs []string) {
	for _, p := range midi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range midi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	return ins, outs
}

// Listener turns incoming MIDI into engine messages. Bank select
// controllers are remembered per channel and attached to the next Program
// Change on that channel.
type Listener struct {
	sink   chan<- shared.Message
	thru   engine.SendFunc
	logger *log.Logger
	msb    [16]uint8
	lsb    [16]uint8
}

// NewListener creates a Listener. thru may be nil; when set, messages the
// controller does not act on are forwarded to it.
func NewListener(sink chan<- shared.Message, thru engine.SendFunc, logger *log.Logger) *Listener {
	if logger == nil {
		logger = log.Default()
	}
	return &Listener{sink: sink, thru: thru, logger: logger}
}

// Listen starts listening on in. The returned function stops it.
func (l *Listener) Listen(in drivers.In) (func(), error) {
	return midi.ListenTo(in, func(msg midi.Message, absms int32) {
		l.Handle(msg)
	})
}

func (l *Listener) Handle(msg midi.Message) {
	var ch, a, b uint8
	switch {
	case msg.GetProgramChange(&ch, &a):
		bank := shared.JoinBank(l.msb[ch], l.lsb[ch])
		l.logger.Debug("program change", "channel", ch, "program", a, "bank", bank)
		l.push(shared.Message{Type: shared.ProgramChange, Channel: ch, Program: a, Bank: bank})
	case msg.GetControlChange(&ch, &a, &b) && a == shared.CCBankMSB:
		l.msb[ch] = b
	case msg.GetControlChange(&ch, &a, &b) && a == shared.CCBankLSB:
		l.lsb[ch] = b
	default:
		l.logger.Debug("midi in", "msg", msg)
		if l.thru != nil {
			if err := l.thru(msg); err != nil {
				l.logger.Error("thru", "err", err)
			}
		}
	}
}

// push must not block the driver callback.
func (l *Listener) push(m shared.Message) {
	select {
	case l.sink <- m:
	default:
		l.logger.Warn("engine busy, dropping message", "type", m.Type)
	}
}
