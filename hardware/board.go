package hardware

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/JeanRibes/midi-controller/engine"
	"github.com/charmbracelet/log"
	"go.bug.st/serial"
)

var (
	ErrNoSample = engine.ErrNoSample
	ErrPinFault = errors.New("board reported a pin fault")
)

type sample struct {
	value int
	fault bool
}

// Board is an IO board attached over a serial link. It streams pin readings
// and accepts output writes. Read returns the latest reading of a pin.
type Board struct {
	port    io.ReadWriteCloser
	logger  *log.Logger
	mu      sync.Mutex
	samples map[int]sample
	writeMu sync.Mutex
	done    chan struct{}
}

// Open opens the serial device and starts consuming frames.
func Open(name string, baud int, logger *log.Logger) (*Board, error) {
	if logger == nil {
		logger = log.Default()
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("serial %s: %w", name, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		logger.Warn("reset input buffer", "err", err)
	}
	logger.Info("serial port opened", "device", name, "baud", baud)
	return NewBoard(port, logger), nil
}

// NewBoard starts reading frames from port.
func NewBoard(port io.ReadWriteCloser, logger *log.Logger) *Board {
	if logger == nil {
		logger = log.Default()
	}
	b := &Board{
		port:    port,
		logger:  logger,
		samples: map[int]sample{},
		done:    make(chan struct{}),
	}
	go b.listen()
	return b
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (b *Board) listen() {
	defer close(b.done)
	dec := NewDecoder(b.port)
	for {
		f, err := dec.Next()
		switch {
		case errors.Is(err, ErrChecksum), errors.Is(err, ErrBadFrame):
			b.logger.Warn("dropping frame", "err", err)
			continue
		case err != nil:
			if !errors.Is(err, io.EOF) {
				b.logger.Error("serial read", "err", err)
			}
			return
		}
		b.apply(f)
	}
}

func (b *Board) apply(f Frame) {
	switch {
	case f.Cmd == CmdReading && len(f.Payload) == 3:
		pin := int(f.Payload[0])
		value := int(f.Payload[1])<<8 | int(f.Payload[2])
		b.mu.Lock()
		b.samples[pin] = sample{value: value}
		b.mu.Unlock()
	case f.Cmd == CmdFault && len(f.Payload) == 1:
		pin := int(f.Payload[0])
		b.logger.Warn("pin fault", "pin", pin)
		b.mu.Lock()
		b.samples[pin] = sample{fault: true}
		b.mu.Unlock()
	default:
		b.logger.Debug("ignoring frame", "cmd", f.Cmd, "len", len(f.Payload))
	}
}

func (b *Board) Read(num int) (int, error) {
	b.mu.Lock()
	s, ok := b.samples[num]
	b.mu.Unlock()
	switch {
	case !ok:
		return 0, ErrNoSample
	case s.fault:
		return 0, ErrPinFault
	}
	return s.value, nil
}

func (b *Board) Write(num int, value uint8) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if _, err := b.port.Write(WriteFrame(num, value).Encode()); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

// Close closes the port and waits for the reader to stop.
func (b *Board) Close() error {
	err := b.port.Close()
	<-b.done
	return err
}
