package midiio

import (
	"io"
	"testing"

	"github.com/JeanRibes/midi-controller/shared"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
)

func TestListenerBankTracking(t *testing.T) {
	sink := make(chan shared.Message, 4)
	l := NewListener(sink, nil, log.New(io.Discard))

	l.Handle(midi.ProgramChange(2, 5))
	l.Handle(midi.ControlChange(0, shared.CCBankMSB, 0x70))
	l.Handle(midi.ControlChange(0, shared.CCBankLSB, 0x01))
	l.Handle(midi.ProgramChange(0, 9))
	l.Handle(midi.ProgramChange(2, 6))

	require.Len(t, sink, 3)
	assert.Equal(t, shared.Message{Type: shared.ProgramChange, Channel: 2, Program: 5}, <-sink)
	assert.Equal(t, shared.Message{Type: shared.ProgramChange, Channel: 0, Program: 9, Bank: 0x7001}, <-sink)
	assert.Equal(t, shared.Message{Type: shared.ProgramChange, Channel: 2, Program: 6}, <-sink, "banks are per channel")
}

func TestListenerThru(t *testing.T) {
	sink := make(chan shared.Message, 1)
	var forwarded []midi.Message
	l := NewListener(sink, func(m midi.Message) error {
		forwarded = append(forwarded, m)
		return nil
	}, log.New(io.Discard))

	l.Handle(midi.NoteOn(0, 60, 100))
	l.Handle(midi.ControlChange(0, shared.CCBankMSB, 1))
	l.Handle(midi.ProgramChange(0, 1))

	assert.Equal(t, []midi.Message{midi.NoteOn(0, 60, 100)}, forwarded)
	assert.Len(t, sink, 1)
}

func TestListenerDropsWhenFull(t *testing.T) {
	sink := make(chan shared.Message, 1)
	l := NewListener(sink, nil, log.New(io.Discard))
	l.Handle(midi.ProgramChange(0, 1))
	l.Handle(midi.ProgramChange(0, 2))
	require.Len(t, sink, 1)
	assert.Equal(t, uint8(1), (<-sink).Program)
}
