package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JeanRibes/midi-controller/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
scan_interval: 2ms
banks_to_handle: [0x7000]
pins:
  - {type: analog, num: 0, min: 133, max: 680}
  - {type: digital_pullup, num: 12}
  - {type: digital_pullup, num: 11}
  - {type: analog_out, num: 22, min: 0, max: 255}
events:
  - {pin: 0, handling: continuous, controller: {channel: 1, number: 1, on: 127, off: 0}}
  - {pin: 1, controller: {channel: 1, number: 0x40, on: 127}}
  - {pin: 1, note: {channel: 1, number: 0x20, on: 96}}
  - {program: {channel: 0, number: 5, bank: 0x7000}}
  - {pin: init, note: {channel: 1, number: 32, on: 96}}
  - {pin: exit, controller: {channel: 1, number: 3, on: 1}}
  - {pin: 2, handling: latching, program: {channel: 1, number: 0x34}}
  - {pin: 2, handling: latching, output: {pin: 3, on: 0xff, off: 0}}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Millisecond, cfg.ScanInterval)

	pins := cfg.EnginePins()
	require.Len(t, pins, 4)
	assert.Equal(t, engine.Pin{Type: engine.Analog, Num: 0, Min: 133, Max: 680}, pins[0])
	assert.Equal(t, engine.Pin{Type: engine.DigitalPullup, Num: 12, Min: 0, Max: 1}, pins[1])

	entries := cfg.Entries()
	require.Len(t, entries, 8)
	assert.Equal(t, engine.Entry{
		Target:   engine.RealPin(0),
		Handling: engine.Continuous,
		Event:    engine.ControllerEvent{Channel: 1, Controller: 1, OnValue: 127},
	}, entries[0])
	assert.Equal(t, engine.SegmentMarker{Channel: 0, Program: 5, Bank: 0x7000}, entries[3].Target)
	assert.Equal(t, engine.OnSegmentEnter{}, entries[4].Target)
	assert.Equal(t, engine.OnSegmentExit{}, entries[5].Target)
	assert.Equal(t, engine.LatchingOff, entries[6].Handling)
	assert.Equal(t, engine.OutputEvent{Pin: 3, OnValue: 0xff}, entries[7].Event)

	assert.Equal(t, engine.AllowBanks(0x7000), cfg.Filter())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"both filters", "banks_to_handle: [1]\nbanks_to_ignore: [2]\n"},
		{"pin type", "pins: [{type: servo}]\n"},
		{"handling", "events: [{pin: 0, handling: sticky, note: {number: 1}}]\n"},
		{"two events", "events: [{pin: 0, note: {number: 1}, controller: {number: 1}}]\n"},
		{"no event", "events: [{pin: 0}]\n"},
		{"bad pin", "events: [{pin: foot, note: {number: 1}}]\n"},
		{"missing pin", "events: [{note: {number: 1}}]\n"},
		{"interval", "scan_interval: 0s\n"},
		{"nan curve", "pins: [{type: analog, curve: .nan}]\n"},
		{"infinite curve", "pins: [{type: analog, curve: -.inf}]\n"},
		{"yaml", "pins: {"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controller.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Pins, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDefaultFilter(t *testing.T) {
	cfg, err := Parse([]byte("banks_to_ignore: [0x7000]\n"))
	require.NoError(t, err)
	assert.Equal(t, engine.IgnoreBanks(0x7000), cfg.Filter())

	cfg, err = Parse([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, engine.BankFilter{}, cfg.Filter())
	assert.Equal(t, 5*time.Millisecond, cfg.ScanInterval)
}

func TestExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "controller.yaml"))
	require.NoError(t, err)
	table := engine.NewTable(cfg.EnginePins(), cfg.Entries(), cfg.Filter(), nil)
	require.Len(t, table.Segments, 2)
	assert.True(t, table.Segments[0].Synthetic)
	assert.Len(t, table.Segments[1].Pins[0], 2)
}
