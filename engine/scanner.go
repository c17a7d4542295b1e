package engine

import (
	"errors"
	"fmt"
)

// OnThreshold is the normalized level at or above which a pin counts as pressed.
const OnThreshold = 64

type Edge int

const (
	Unchanged Edge = iota
	Rising
	Falling
)

func (e Edge) String() string {
	switch e {
	case Rising:
		return "rising"
	case Falling:
		return "falling"
	default:
		return "unchanged"
	}
}

// ErrNoSample is returned by a PinReader for a pin that has no value yet,
// typically while a board is still starting up.
var ErrNoSample = errors.New("no sample received yet")

// PinReader samples the raw value of a hardware pin.
type PinReader interface {
	Read(num int) (int, error)
}

// Reading is the outcome of one pin for one scan cycle.
type Reading struct {
	Pin     int // index in the pin table
	Value   uint8
	Edge    Edge
	Changed bool
	// Seeded is set on the first successful read of the pin: the value becomes
	// the baseline and no transition is reported.
	Seeded bool
}

// Scanner polls every input pin once per cycle and classifies its
// transition against the previous cycle.
type Scanner struct {
	pins   []Pin
	reader PinReader
	prev   []uint8
	high   []bool
	seeded []bool
}

func NewScanner(pins []Pin, reader PinReader) *Scanner {
	return &Scanner{
		pins:   pins,
		reader: reader,
		prev:   make([]uint8, len(pins)),
		high:   make([]bool, len(pins)),
		seeded: make([]bool, len(pins)),
	}
}

// Level converts a raw reading of p into its logical 0..127 level.
func Level(p Pin, raw int) uint8 {
	v := Normalize(raw, p.Min, p.Max, p.Curve)
	if !p.Type.isDigital() {
		return v
	}
	if p.Type == DigitalPullup {
		// active low
		v = MaxValue - v
	}
	if v >= OnThreshold {
		return MaxValue
	}
	return 0
}

func offThreshold(p Pin) uint8 {
	if p.Hysteresis >= OnThreshold {
		return 1
	}
	return OnThreshold - p.Hysteresis
}

// Scan reads all input pins. Pins whose read fails keep their previous
// value and produce no reading; the failures are returned joined.
func (s *Scanner) Scan() ([]Reading, error) {
	var errs error
	readings := make([]Reading, 0, len(s.pins))
	for i, p := range s.pins {
		if !p.Type.IsInput() {
			continue
		}
		raw, err := s.reader.Read(p.Num)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("pin %d (hw %d): %w", i, p.Num, err))
			continue
		}
		readings = append(readings, s.classify(i, Level(p, raw)))
	}
	return readings, errs
}

func (s *Scanner) classify(i int, v uint8) Reading {
	r := Reading{Pin: i, Value: v}
	if !s.seeded[i] {
		s.seeded[i] = true
		s.prev[i] = v
		s.high[i] = v >= OnThreshold
		r.Seeded = true
		return r
	}
	r.Changed = v != s.prev[i]
	s.prev[i] = v
	switch {
	case !s.high[i] && v >= OnThreshold:
		s.high[i] = true
		r.Edge = Rising
	case s.high[i] && v < offThreshold(s.pins[i]):
		s.high[i] = false
		r.Edge = Falling
	}
	return r
}
