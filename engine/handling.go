package engine

import (
	"fmt"
	"strings"
)

// Handling is the policy turning a pin's transitions into logical signals.
type Handling int

const (
	Momentary Handling = iota
	LatchingOff
	LatchingOn
	Continuous
	numHandlings
)

func (h Handling) String() string {
	switch h {
	case Momentary:
		return "momentary"
	case LatchingOff:
		return "latching_off"
	case LatchingOn:
		return "latching_on"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("Handling(%d)", int(h))
	}
}

// ParseHandling accepts the names printed by String, plus "latching" for
// LatchingOff.
func ParseHandling(s string) (Handling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "momentary":
		return Momentary, nil
	case "latching", "latching_off":
		return LatchingOff, nil
	case "latching_on":
		return LatchingOn, nil
	case "continuous":
		return Continuous, nil
	}
	return 0, fmt.Errorf("unknown handling %q", s)
}

type SignalKind int

const (
	SignalOn SignalKind = iota
	SignalOff
	SignalValue
)

// Signal is the logical outcome of a transition. Value is only meaningful
// for SignalValue.
type Signal struct {
	Kind  SignalKind
	Value uint8
}

var (
	On  = Signal{Kind: SignalOn}
	Off = Signal{Kind: SignalOff}
)

func ValueSignal(v uint8) Signal {
	return Signal{Kind: SignalValue, Value: v}
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalOn:
		return "on"
	case SignalOff:
		return "off"
	default:
		return fmt.Sprintf("value(%d)", s.Value)
	}
}

// signals holds what each handling mode fires for one reading.
type signals [numHandlings]struct {
	fire bool
	sig  Signal
}

func (s *signals) set(h Handling, sig Signal) {
	s[h].fire = true
	s[h].sig = sig
}

func (s *signals) get(h Handling) (Signal, bool) {
	if h < 0 || h >= numHandlings {
		return Signal{}, false
	}
	return s[h].sig, s[h].fire
}

// pinState is the handling memory of one physical pin. Every mode is
// advanced once per reading so that fan-out entries share one toggle.
type pinState struct {
	latchOff bool
	latchOn  bool
	last     uint8
	known    bool
}

func newPinState() pinState {
	s := pinState{}
	s.reset()
	return s
}

func (s *pinState) reset() {
	s.latchOff = false
	s.latchOn = true
	s.known = false
	s.last = 0
}

func (s *pinState) advance(r Reading) signals {
	var out signals

	switch r.Edge {
	case Rising:
		out.set(Momentary, On)
		s.latchOff = !s.latchOff
		out.set(LatchingOff, latchSignal(s.latchOff))
		s.latchOn = !s.latchOn
		out.set(LatchingOn, latchSignal(s.latchOn))
	case Falling:
		out.set(Momentary, Off)
	}

	switch {
	case r.Seeded || !s.known:
		s.known = true
		s.last = r.Value
	case r.Value != s.last:
		s.last = r.Value
		out.set(Continuous, ValueSignal(r.Value))
	}
	return out
}

func latchSignal(on bool) Signal {
	if on {
		return On
	}
	return Off
}
