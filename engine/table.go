package engine

import (
	"errors"
	"fmt"

	"github.com/JeanRibes/midi-controller/shared"
	"github.com/charmbracelet/log"
)

// Segment is the set of entries active while its marker is selected.
type Segment struct {
	Marker SegmentMarker
	// Synthetic is set for a default segment that precedes any marker; its
	// marker never matches a Program Change.
	Synthetic bool
	Init      []Entry
	Exit      []Entry
	Pins      map[int][]Entry
}

func (s *Segment) String() string {
	if s.Synthetic {
		return "default"
	}
	return s.Marker.String()
}

func newSegment(m SegmentMarker, synthetic bool) *Segment {
	return &Segment{Marker: m, Synthetic: synthetic, Pins: map[int][]Entry{}}
}

type FilterMode int

const (
	FilterNone FilterMode = iota
	FilterAllow
	FilterDeny
)

// BankFilter is either an allow list or a deny list of banks.
type BankFilter struct {
	Mode  FilterMode
	Banks map[uint16]struct{}
}

func AllowBanks(banks ...uint16) BankFilter {
	return newBankFilter(FilterAllow, banks)
}

func IgnoreBanks(banks ...uint16) BankFilter {
	return newBankFilter(FilterDeny, banks)
}

func newBankFilter(mode FilterMode, banks []uint16) BankFilter {
	f := BankFilter{Mode: mode, Banks: make(map[uint16]struct{}, len(banks))}
	for _, b := range banks {
		f.Banks[b] = struct{}{}
	}
	return f
}

// Accepts reports whether a Program Change in bank may switch segments.
func (f BankFilter) Accepts(bank uint16) bool {
	_, listed := f.Banks[bank]
	switch f.Mode {
	case FilterAllow:
		return listed
	case FilterDeny:
		return !listed
	default:
		return true
	}
}

// Table is the parsed event map: the pin table and its segments, the first
// one being the default.
type Table struct {
	Pins     []Pin
	Segments []*Segment
	Filter   BankFilter
}

var (
	ErrPinRange      = errors.New("pin index out of range")
	ErrNotInput      = errors.New("not an input pin")
	ErrNotOutput     = errors.New("not an output pin")
	ErrDataRange     = errors.New("MIDI value out of range")
	ErrDegenerate    = errors.New("continuous entry with equal on and off values")
	ErrNoEvent       = errors.New("entry has no event")
	ErrUnreachable   = errors.New("segment marker can never be selected")
	ErrNotContinuous = errors.New("program events cannot be continuous")
)

// NewTable splits entries into segments. Malformed entries are logged and
// left out; a segment whose marker is invalid or unreachable is dropped
// with all its entries.
func NewTable(pins []Pin, entries []Entry, filter BankFilter, logger *log.Logger) *Table {
	if logger == nil {
		logger = log.Default()
	}
	t := &Table{Pins: pins, Filter: filter}

	var cur *Segment
	skipping := false
	for i, e := range entries {
		if m, ok := e.Target.(SegmentMarker); ok {
			if err := t.checkMarker(m); err != nil {
				logger.Warn("skipping segment", "entry", i, "marker", m, "err", err)
				cur, skipping = nil, true
				continue
			}
			cur, skipping = newSegment(m, false), false
			t.Segments = append(t.Segments, cur)
			continue
		}
		if skipping {
			logger.Debug("skipping entry of dropped segment", "entry", i)
			continue
		}
		if err := t.checkEntry(e); err != nil {
			logger.Warn("skipping entry", "entry", i, "err", err)
			continue
		}
		if cur == nil {
			cur = newSegment(SegmentMarker{}, true)
			t.Segments = append(t.Segments, cur)
		}
		switch target := e.Target.(type) {
		case OnSegmentEnter:
			cur.Init = append(cur.Init, e)
		case OnSegmentExit:
			cur.Exit = append(cur.Exit, e)
		case RealPin:
			cur.Pins[int(target)] = append(cur.Pins[int(target)], e)
		}
	}
	if len(t.Segments) == 0 {
		t.Segments = append(t.Segments, newSegment(SegmentMarker{}, true))
	}
	logger.Debug("event map parsed", "pins", len(pins), "segments", len(t.Segments))
	return t
}

// Lookup returns the first segment whose marker matches, or false.
func (t *Table) Lookup(m SegmentMarker) (int, bool) {
	for i, s := range t.Segments {
		if !s.Synthetic && s.Marker == m {
			return i, true
		}
	}
	return 0, false
}

func (t *Table) checkMarker(m SegmentMarker) error {
	if m.Channel > 15 || m.Program > 127 || !shared.ValidBank(m.Bank) {
		return ErrDataRange
	}
	if _, ok := t.Lookup(m); ok {
		return fmt.Errorf("%w: duplicates an earlier segment", ErrUnreachable)
	}
	// the first segment stays reachable through boot and the fallback
	if len(t.Segments) > 0 && !t.Filter.Accepts(m.Bank) {
		return fmt.Errorf("%w: bank %#04x is filtered out", ErrUnreachable, m.Bank)
	}
	return nil
}

func (t *Table) checkEntry(e Entry) error {
	if e.Target == nil {
		return fmt.Errorf("%w: no target", ErrPinRange)
	}
	if p, ok := e.Target.(RealPin); ok {
		if int(p) < 0 || int(p) >= len(t.Pins) {
			return fmt.Errorf("%w: %d", ErrPinRange, int(p))
		}
		if !t.Pins[p].Type.IsInput() {
			return fmt.Errorf("%w: %d is %s", ErrNotInput, int(p), t.Pins[p].Type)
		}
	}
	continuous := e.Handling == Continuous
	switch ev := e.Event.(type) {
	case NoteEvent:
		if ev.Channel > 15 || ev.Note > 127 || ev.OnVelocity > 127 || ev.OffVelocity > 127 {
			return fmt.Errorf("%w: %s", ErrDataRange, ev)
		}
		if continuous && ev.OnVelocity == ev.OffVelocity {
			return fmt.Errorf("%w: %s", ErrDegenerate, ev)
		}
	case ControllerEvent:
		if ev.Channel > 15 || ev.Controller > 127 || ev.OnValue > 127 || ev.OffValue > 127 {
			return fmt.Errorf("%w: %s", ErrDataRange, ev)
		}
		if continuous && ev.OnValue == ev.OffValue {
			return fmt.Errorf("%w: %s", ErrDegenerate, ev)
		}
	case ProgramEvent:
		if ev.Channel > 15 || ev.Program > 127 || !shared.ValidBank(ev.Bank) {
			return fmt.Errorf("%w: %s", ErrDataRange, ev)
		}
		if continuous {
			return fmt.Errorf("%w: %s", ErrNotContinuous, ev)
		}
	case OutputEvent:
		if ev.Pin < 0 || ev.Pin >= len(t.Pins) {
			return fmt.Errorf("%w: output %d", ErrPinRange, ev.Pin)
		}
		if !t.Pins[ev.Pin].Type.IsOutput() {
			return fmt.Errorf("%w: %d is %s", ErrNotOutput, ev.Pin, t.Pins[ev.Pin].Type)
		}
		if continuous && ev.OnValue == ev.OffValue {
			return fmt.Errorf("%w: %s", ErrDegenerate, ev)
		}
	default:
		return ErrNoEvent
	}
	return nil
}
