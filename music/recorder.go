package music

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JeanRibes/midi-controller/engine"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"gitlab.com/gomidi/quantizer/lib/quantizer"
)

const BPM = float64(120)

const TICKS = smf.MetricTicks(960)

const STATE_PREALLOCATION = 128

// Recorder keeps a timestamped copy of every message sent through it, to
// be written out as a Standard MIDI File.
type Recorder struct {
	send  engine.SendFunc
	track smf.Track
	last  time.Time
	now   func() time.Time
	sync.Mutex
}

// NewRecorder wraps send. A nil send only records.
func NewRecorder(send engine.SendFunc) *Recorder {
	r := &Recorder{send: send, now: time.Now}
	r.Reset()
	return r
}

// Send records msg and forwards it.
func (r *Recorder) Send(msg midi.Message) error {
	r.Lock()
	now := r.now()
	if r.last.IsZero() {
		r.last = now
	}
	r.track.Add(TICKS.Ticks(BPM, now.Sub(r.last)), msg)
	r.last = now
	r.Unlock()

	if r.send == nil {
		return nil
	}
	return r.send(msg)
}

func (r *Recorder) Reset() {
	r.Lock()
	r.track = make(smf.Track, 0, STATE_PREALLOCATION)
	r.track.Add(0, smf.MetaTrackSequenceName("midi-controller"))
	r.track.Add(0, smf.MetaTempo(BPM))
	r.last = time.Time{}
	r.Unlock()
}

// Len returns the number of recorded MIDI messages.
func (r *Recorder) Len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.track) - 2
}

func (r *Recorder) File() *smf.SMF {
	r.Lock()
	track := make(smf.Track, len(r.track))
	copy(track, r.track)
	r.Unlock()

	track.Close(0)
	f := smf.New()
	f.TimeFormat = TICKS
	if err := f.Add(track); err != nil {
		return nil
	}
	return f
}

// Quantized returns the capture with its notes snapped to the beat grid of
// BPM.
func (r *Recorder) Quantized() (*smf.SMF, error) {
	f := r.File()
	if f == nil {
		return nil, errors.New("capture: could not build track")
	}
	var in, out bytes.Buffer
	if _, err := f.WriteTo(&in); err != nil {
		return nil, err
	}
	if err := quantizer.Quantize(&in, &out); err != nil {
		return nil, fmt.Errorf("quantize: %w", err)
	}
	return smf.ReadFrom(&out)
}

func (r *Recorder) SaveToFile(filepath string, quantize bool) error {
	f := r.File()
	if quantize {
		var err error
		if f, err = r.Quantized(); err != nil {
			return err
		}
	}
	if f == nil {
		return errors.New("capture: could not build track")
	}
	return f.WriteFile(filepath)
}
