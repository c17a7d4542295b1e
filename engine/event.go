package engine

import "fmt"

// Event is the output action of an event map entry. It is one of NoteEvent,
// ControllerEvent, ProgramEvent or OutputEvent.
type Event interface {
	isEvent()
	String() string
}

type NoteEvent struct {
	Channel     uint8
	Note        uint8
	OnVelocity  uint8
	OffVelocity uint8
}

type ControllerEvent struct {
	Channel    uint8
	Controller uint8
	OnValue    uint8
	OffValue   uint8
}

// ProgramEvent selects a program, preceded by a bank select.
type ProgramEvent struct {
	Channel uint8
	Program uint8
	Bank    uint16 // 0xMMLL, sent as CC0 (MSB) and CC32 (LSB)
}

// OutputEvent drives an output pin. Pin indexes the pin table.
type OutputEvent struct {
	Pin      int
	OnValue  uint8
	OffValue uint8
}

func (NoteEvent) isEvent()       {}
func (ControllerEvent) isEvent() {}
func (ProgramEvent) isEvent()    {}
func (OutputEvent) isEvent()     {}

func (e NoteEvent) String() string {
	return fmt.Sprintf("note ch=%d key=%d on=%d off=%d", e.Channel, e.Note, e.OnVelocity, e.OffVelocity)
}

func (e ControllerEvent) String() string {
	return fmt.Sprintf("cc ch=%d cc=%d on=%d off=%d", e.Channel, e.Controller, e.OnValue, e.OffValue)
}

func (e ProgramEvent) String() string {
	return fmt.Sprintf("program ch=%d prog=%d bank=%#04x", e.Channel, e.Program, e.Bank)
}

func (e OutputEvent) String() string {
	return fmt.Sprintf("output pin=%d on=%d off=%d", e.Pin, e.OnValue, e.OffValue)
}

// Target is what an event map entry is attached to: a RealPin, OnSegmentEnter,
// OnSegmentExit or a SegmentMarker opening a new segment.
type Target interface {
	isTarget()
}

type RealPin int

type OnSegmentEnter struct{}

type OnSegmentExit struct{}

// SegmentMarker starts a segment; an incoming Program Change equal to the
// marker activates it.
type SegmentMarker struct {
	Channel uint8
	Program uint8
	Bank    uint16
}

func (RealPin) isTarget()        {}
func (OnSegmentEnter) isTarget() {}
func (OnSegmentExit) isTarget()  {}
func (SegmentMarker) isTarget()  {}

func (m SegmentMarker) String() string {
	return fmt.Sprintf("ch=%d prog=%d bank=%#04x", m.Channel, m.Program, m.Bank)
}

// Entry is one line of the event map. Event is nil for a SegmentMarker.
type Entry struct {
	Target   Target
	Handling Handling
	Event    Event
}
