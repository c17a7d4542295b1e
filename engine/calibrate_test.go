package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEndpoints(t *testing.T) {
	tests := []struct {
		name          string
		raw, min, max int
		curve         float64
		want          uint8
	}{
		{"min", 133, 133, 680, 0, 0},
		{"max", 680, 133, 680, 0, 127},
		{"reversed min", 680, 680, 133, 0, 0},
		{"reversed max", 133, 680, 133, 0, 127},
		{"below range", 0, 133, 680, 0, 0},
		{"above range", 5000, 133, 680, 0, 127},
		{"reversed below range", 0, 680, 133, 0, 127},
		{"reversed above range", 5000, 680, 133, 0, 0},
		{"curved min", 133, 133, 680, 5, 0},
		{"curved max", 680, 133, 680, -5, 127},
		{"midpoint", 64, 0, 127, 0, 64},
		{"boolean low", 0, 0, 0, 0, 0},
		{"boolean high", 1, 0, 0, 0, 127},
		{"nan curve is linear", 64, 0, 127, math.NaN(), 64},
		{"infinite curve is clamped", 127, 0, 127, math.Inf(1), 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.raw, tt.min, tt.max, tt.curve))
		})
	}
}

func TestNormalizeCurve(t *testing.T) {
	linear := Normalize(64, 0, 127, 0)
	assert.Greater(t, Normalize(64, 0, 127, 5), linear, "positive curve lifts the low end")
	assert.Less(t, Normalize(64, 0, 127, -5), linear, "negative curve lifts the high end")
	assert.Equal(t, Normalize(64, 0, 127, 10), Normalize(64, 0, 127, 50), "curve is clamped")
}

func TestLevelDigital(t *testing.T) {
	pullup := Pin{Type: DigitalPullup, Min: 0, Max: 1023}
	assert.Equal(t, uint8(127), Level(pullup, 0), "grounded pull-up is pressed")
	assert.Equal(t, uint8(0), Level(pullup, 1023))

	digital := Pin{Type: Digital, Min: 0, Max: 1023}
	assert.Equal(t, uint8(127), Level(digital, 700))
	assert.Equal(t, uint8(0), Level(digital, 300))
}

func TestInterpolate(t *testing.T) {
	assert.Equal(t, uint8(64), Interpolate(127, 0, 64, MaxValue))
	assert.Equal(t, uint8(127), Interpolate(0, 127, 0, MaxValue))
	assert.Equal(t, uint8(0), Interpolate(0, 127, 127, MaxValue))
	assert.Equal(t, uint8(255), Interpolate(255, 0, 127, maxOutput))
	assert.Equal(t, uint8(127), Interpolate(200, 0, 127, MaxValue), "clamped to the MIDI range")

	for on := 0; on < 256; on += 15 {
		for off := 0; off < 256; off += 17 {
			lo, hi := uint8(min(on, off)), uint8(max(on, off))
			for v := 0; v <= MaxValue; v++ {
				got := Interpolate(uint8(on), uint8(off), uint8(v), maxOutput)
				if got < lo || got > hi {
					t.Fatalf("Interpolate(%d, %d, %d) = %d, outside [%d, %d]", on, off, v, got, lo, hi)
				}
			}
		}
	}
}
