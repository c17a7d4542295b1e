package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanOne(t *testing.T, s *Scanner) Reading {
	t.Helper()
	readings, err := s.Scan()
	require.NoError(t, err)
	require.Len(t, readings, 1)
	return readings[0]
}

func TestScannerEdges(t *testing.T) {
	board := newFakeBoard()
	pins := []Pin{
		{Type: Analog, Num: 0, Min: 0, Max: 127, Hysteresis: 10},
		{Type: AnalogOut, Num: 1, Min: 0, Max: 255},
	}
	s := NewScanner(pins, board)

	board.raw[0] = 100
	r := scanOne(t, s)
	assert.True(t, r.Seeded)
	assert.Equal(t, Unchanged, r.Edge)

	board.raw[0] = 30
	r = scanOne(t, s)
	assert.Equal(t, Falling, r.Edge)
	assert.True(t, r.Changed)

	board.raw[0] = 64
	assert.Equal(t, Rising, scanOne(t, s).Edge)

	// inside the hysteresis band
	board.raw[0] = 60
	r = scanOne(t, s)
	assert.Equal(t, Unchanged, r.Edge)
	assert.True(t, r.Changed)

	board.raw[0] = 53
	assert.Equal(t, Falling, scanOne(t, s).Edge)

	r = scanOne(t, s)
	assert.Equal(t, Unchanged, r.Edge)
	assert.False(t, r.Changed)
}

func TestHandlingParse(t *testing.T) {
	for _, h := range []Handling{Momentary, LatchingOff, LatchingOn, Continuous} {
		got, err := ParseHandling(h.String())
		require.NoError(t, err)
		assert.Equal(t, h, got)
	}
	got, err := ParseHandling("Latching")
	require.NoError(t, err)
	assert.Equal(t, LatchingOff, got)

	_, err = ParseHandling("sticky")
	assert.Error(t, err)
}
