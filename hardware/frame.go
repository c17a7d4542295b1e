package hardware

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

const (
	SOF0 = 0xAA
	SOF1 = 0x55

	CmdReading = 0x01 // board -> host: pin, value hi, value lo
	CmdWrite   = 0x02 // host -> board: pin, value
	CmdFault   = 0x03 // board -> host: pin
)

var (
	ErrChecksum = errors.New("frame checksum mismatch")
	ErrBadFrame = errors.New("malformed frame")
)

// Frame is one message of the IO board link.
//
//	[SOF0][SOF1][LEN][CMD][payload...][CKS]
//
// LEN counts CMD plus payload, CKS is the XOR of LEN, CMD and payload.
type Frame struct {
	Cmd     byte
	Payload []byte
}

func (f Frame) Encode() []byte {
	length := byte(len(f.Payload) + 1)
	cks := length ^ f.Cmd
	for _, b := range f.Payload {
		cks ^= b
	}
	out := make([]byte, 0, len(f.Payload)+5)
	out = append(out, SOF0, SOF1, length, f.Cmd)
	out = append(out, f.Payload...)
	return append(out, cks)
}

func WriteFrame(pin int, value uint8) Frame {
	return Frame{Cmd: CmdWrite, Payload: []byte{byte(pin), value}}
}

func ReadingFrame(pin int, value uint16) Frame {
	return Frame{Cmd: CmdReading, Payload: []byte{byte(pin), byte(value >> 8), byte(value)}}
}

func FaultFrame(pin int) Frame {
	return Frame{Cmd: CmdFault, Payload: []byte{byte(pin)}}
}

// Decoder reads frames from a byte stream, resynchronizing on SOF.
type Decoder struct {
	r *bufio.Reader
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next returns the next frame. A frame failing its checksum is consumed and
// reported with ErrChecksum; the stream stays usable.
func (d *Decoder) Next() (Frame, error) {
	if err := d.sync(); err != nil {
		return Frame{}, err
	}
	length, err := d.r.ReadByte()
	if err != nil {
		return Frame{}, err
	}
	if length == 0 {
		return Frame{}, fmt.Errorf("%w: zero length", ErrBadFrame)
	}
	body := make([]byte, int(length)+1) // CMD, payload, CKS
	if _, err := io.ReadFull(d.r, body); err != nil {
		return Frame{}, err
	}
	cks := length
	for _, b := range body[:length] {
		cks ^= b
	}
	if cks != body[length] {
		return Frame{}, ErrChecksum
	}
	return Frame{Cmd: body[0], Payload: body[1:length]}, nil
}

func (d *Decoder) sync() error {
	prev := byte(0)
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == SOF0 && b == SOF1 {
			return nil
		}
		prev = b
	}
}
