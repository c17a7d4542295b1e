package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/JeanRibes/midi-controller/engine"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ScanInterval  time.Duration `yaml:"scan_interval"`
	BanksToHandle []uint16      `yaml:"banks_to_handle"`
	BanksToIgnore []uint16      `yaml:"banks_to_ignore"`
	Pins          []PinConfig   `yaml:"pins"`
	Events        []EventConfig `yaml:"events"`
}

type PinConfig struct {
	Type       string  `yaml:"type"`
	Num        int     `yaml:"num"`
	Min        int     `yaml:"min"`
	Max        int     `yaml:"max"`
	Curve      float64 `yaml:"curve"`
	Hysteresis uint8   `yaml:"hysteresis"`
}

// EventConfig is one event map line. Pin is a pin index or one of "init",
// "exit"; a line with a program marker and no pin starts a segment.
type EventConfig struct {
	Pin        PinRef         `yaml:"pin"`
	Handling   string         `yaml:"handling"`
	Note       *ValueEvent    `yaml:"note"`
	Controller *ValueEvent    `yaml:"controller"`
	Program    *ProgramConfig `yaml:"program"`
	Output     *OutputConfig  `yaml:"output"`
}

type ValueEvent struct {
	Channel uint8 `yaml:"channel"`
	Number  uint8 `yaml:"number"`
	On      uint8 `yaml:"on"`
	Off     uint8 `yaml:"off"`
}

type ProgramConfig struct {
	Channel uint8  `yaml:"channel"`
	Number  uint8  `yaml:"number"`
	Bank    uint16 `yaml:"bank"`
}

type OutputConfig struct {
	Pin int   `yaml:"pin"`
	On  uint8 `yaml:"on"`
	Off uint8 `yaml:"off"`
}

// PinRef is a pin index or a lifecycle name, kept as written.
type PinRef string

func (p *PinRef) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: pin must be a number, init or exit", n.Line)
	}
	*p = PinRef(n.Value)
	return nil
}

const (
	pinInit = "init"
	pinExit = "exit"
)

var ErrBothFilters = errors.New("banks_to_handle and banks_to_ignore are mutually exclusive")

func DefaultConfig() *Config {
	return &Config{ScanInterval: 5 * time.Millisecond}
}

// Load reads and checks a YAML configuration file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) check() (errs error) {
	if len(c.BanksToHandle) > 0 && len(c.BanksToIgnore) > 0 {
		errs = errors.Join(errs, ErrBothFilters)
	}
	if c.ScanInterval <= 0 {
		errs = errors.Join(errs, fmt.Errorf("scan_interval must be positive, got %s", c.ScanInterval))
	}
	for i, p := range c.Pins {
		if _, err := ParsePinType(p.Type); err != nil {
			errs = errors.Join(errs, fmt.Errorf("pins[%d]: %w", i, err))
		}
		if math.IsNaN(p.Curve) || math.IsInf(p.Curve, 0) {
			errs = errors.Join(errs, fmt.Errorf("pins[%d]: curve must be a finite number", i))
		}
	}
	for i, ev := range c.Events {
		if _, err := ev.entry(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("events[%d]: %w", i, err))
		}
	}
	return errs
}

func ParsePinType(s string) (engine.PinType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "analog":
		return engine.Analog, nil
	case "digital":
		return engine.Digital, nil
	case "digital_pullup":
		return engine.DigitalPullup, nil
	case "analog_out":
		return engine.AnalogOut, nil
	case "digital_out":
		return engine.DigitalOut, nil
	}
	return 0, fmt.Errorf("unknown pin type %q", s)
}

// EnginePins converts the pin table. Digital pins without a range read 0/1.
func (c *Config) EnginePins() []engine.Pin {
	pins := make([]engine.Pin, 0, len(c.Pins))
	for _, p := range c.Pins {
		t, _ := ParsePinType(p.Type)
		pin := engine.Pin{Type: t, Num: p.Num, Min: p.Min, Max: p.Max, Curve: p.Curve, Hysteresis: p.Hysteresis}
		if (t == engine.Digital || t == engine.DigitalPullup || t == engine.DigitalOut) && p.Min == 0 && p.Max == 0 {
			pin.Max = 1
		}
		pins = append(pins, pin)
	}
	return pins
}

func (c *Config) Entries() []engine.Entry {
	entries := make([]engine.Entry, 0, len(c.Events))
	for _, ev := range c.Events {
		e, err := ev.entry()
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

func (c *Config) Filter() engine.BankFilter {
	switch {
	case len(c.BanksToHandle) > 0:
		return engine.AllowBanks(c.BanksToHandle...)
	case len(c.BanksToIgnore) > 0:
		return engine.IgnoreBanks(c.BanksToIgnore...)
	}
	return engine.BankFilter{}
}

func (ev EventConfig) entry() (engine.Entry, error) {
	var e engine.Entry
	h, err := engine.ParseHandling(ev.Handling)
	if err != nil {
		return e, err
	}
	e.Handling = h

	var kinds []engine.Event
	if ev.Note != nil {
		kinds = append(kinds, engine.NoteEvent{Channel: ev.Note.Channel, Note: ev.Note.Number, OnVelocity: ev.Note.On, OffVelocity: ev.Note.Off})
	}
	if ev.Controller != nil {
		kinds = append(kinds, engine.ControllerEvent{Channel: ev.Controller.Channel, Controller: ev.Controller.Number, OnValue: ev.Controller.On, OffValue: ev.Controller.Off})
	}
	if ev.Program != nil {
		kinds = append(kinds, engine.ProgramEvent{Channel: ev.Program.Channel, Program: ev.Program.Number, Bank: ev.Program.Bank})
	}
	if ev.Output != nil {
		kinds = append(kinds, engine.OutputEvent{Pin: ev.Output.Pin, OnValue: ev.Output.On, OffValue: ev.Output.Off})
	}
	if len(kinds) != 1 {
		return e, fmt.Errorf("want exactly one of note, controller, program, output; got %d", len(kinds))
	}

	switch pin := strings.ToLower(strings.TrimSpace(string(ev.Pin))); pin {
	case "":
		// a bare program line is a segment marker
		if ev.Program == nil {
			return e, errors.New("missing pin")
		}
		e.Target = engine.SegmentMarker{Channel: ev.Program.Channel, Program: ev.Program.Number, Bank: ev.Program.Bank}
		return e, nil
	case pinInit:
		e.Target = engine.OnSegmentEnter{}
	case pinExit:
		e.Target = engine.OnSegmentExit{}
	default:
		n, err := strconv.Atoi(pin)
		if err != nil {
			return e, fmt.Errorf("bad pin %q", ev.Pin)
		}
		e.Target = engine.RealPin(n)
	}
	e.Event = kinds[0]
	return e, nil
}
