package engine

import (
	"context"
	"errors"
	"time"

	"github.com/JeanRibes/midi-controller/shared"
	"github.com/charmbracelet/log"
)

// Engine owns the runtime state of the controller: the active segment and
// the handling state of every pin. It is not safe for concurrent use; Run
// serializes Program Changes and scans on one goroutine.
type Engine struct {
	table    *Table
	scanner  *Scanner
	dispatch *Dispatcher
	states   []pinState
	active   int
	logger   *log.Logger
}

func New(table *Table, reader PinReader, send SendFunc, out OutputWriter, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	e := &Engine{
		table:    table,
		scanner:  NewScanner(table.Pins, reader),
		dispatch: NewDispatcher(table.Pins, send, out, logger),
		states:   make([]pinState, len(table.Pins)),
		logger:   logger,
	}
	e.resetStates()
	return e
}

// Active returns the active segment.
func (e *Engine) Active() *Segment {
	return e.table.Segments[e.active]
}

// Boot activates the default segment and fires its INIT entries.
func (e *Engine) Boot() error {
	e.active = 0
	e.resetStates()
	e.logger.Info("boot", "segment", e.Active())
	return e.pulse(e.Active().Init)
}

// ProgramChange applies an incoming Program Change. It reports whether the
// active segment changed.
func (e *Engine) ProgramChange(channel, program uint8, bank uint16) (bool, error) {
	if !e.table.Filter.Accepts(bank) {
		e.logger.Debug("program change filtered", "channel", channel, "program", program, "bank", bank)
		return false, nil
	}
	next, ok := e.table.Lookup(SegmentMarker{Channel: channel, Program: program, Bank: bank})
	if !ok {
		next = 0
	}
	if next == e.active {
		return false, nil
	}

	var errs error
	if err := e.pulse(e.Active().Exit); err != nil {
		errs = errors.Join(errs, err)
	}
	prev := e.Active()
	e.active = next
	e.logger.Info("segment switch", "from", prev, "to", e.Active(), "matched", ok)
	if err := e.pulse(e.Active().Init); err != nil {
		errs = errors.Join(errs, err)
	}
	e.resetStates()
	return true, errs
}

// Scan runs one cycle: read pins, advance handling state, dispatch the
// entries of the active segment.
func (e *Engine) Scan() error {
	readings, errs := e.scanner.Scan()
	seg := e.Active()
	for _, r := range readings {
		fired := e.states[r.Pin].advance(r)
		for _, entry := range seg.Pins[r.Pin] {
			sig, ok := fired.get(entry.Handling)
			if !ok {
				continue
			}
			if err := e.dispatch.Dispatch(entry.Event, sig); err != nil {
				e.logger.Error("dispatch", "pin", r.Pin, "event", entry.Event, "err", err)
				errs = errors.Join(errs, err)
			}
		}
	}
	return errs
}

// pulse fires entries as momentary "on" events.
func (e *Engine) pulse(entries []Entry) error {
	var errs error
	for _, entry := range entries {
		if err := e.dispatch.Dispatch(entry.Event, On); err != nil {
			e.logger.Error("dispatch", "event", entry.Event, "err", err)
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

func (e *Engine) resetStates() {
	for i := range e.states {
		e.states[i] = newPinState()
	}
}

// Run boots the engine and scans every interval until ctx is done or a Quit
// message arrives. Messages queued on inbox are applied before each scan.
func (e *Engine) Run(ctx context.Context, interval time.Duration, inbox <-chan shared.Message) error {
	if err := e.Boot(); err != nil {
		e.logger.Error("boot", "err", err)
	}
	for {
	drain:
		for {
			select {
			case msg := <-inbox:
				if msg.Type == shared.Quit {
					e.logger.Info("quit")
					return nil
				}
				e.handle(msg)
			default:
				break drain
			}
		}

		if err := e.Scan(); err != nil {
			e.logScan(err)
		}

		select {
		case <-ctx.Done():
			e.logger.Debug("context done")
			return nil
		case <-time.After(interval):
		}
	}
}

func (e *Engine) handle(msg shared.Message) {
	switch msg.Type {
	case shared.ProgramChange:
		if _, err := e.ProgramChange(msg.Channel, msg.Program, msg.Bank); err != nil {
			e.logger.Error("program change", "err", err)
		}
	default:
		e.logger.Warn("unknown message type", "type", msg.Type)
	}
}

// logScan reports scan failures. Pins still waiting for their first sample
// are only logged at debug level, as the board may take a while to stream
// every pin.
func (e *Engine) logScan(err error) {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, err := range joined.Unwrap() {
			e.logScan(err)
		}
		return
	}
	if errors.Is(err, ErrNoSample) {
		e.logger.Debug("scan", "err", err)
		return
	}
	e.logger.Warn("scan", "err", err)
}
