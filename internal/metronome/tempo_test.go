package metronome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTempo(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"60", 60, true},
		{" 96 ", 96, true},
		{"72.6", 73, true},
		{"10", MinBPM, true},
		{"999", MaxBPM, true},
		{"0", 0, false},
		{"-40", 0, false},
		{"fast", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTempo(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClampTempo(t *testing.T) {
	assert.Equal(t, MinBPM, ClampTempo(1))
	assert.Equal(t, 100, ClampTempo(100))
	assert.Equal(t, MaxBPM, ClampTempo(1000))
}

func TestIsAccent(t *testing.T) {
	for i := 0; i < 16; i++ {
		assert.Equal(t, i == 0 || i == 4 || i == 8 || i == 12, IsAccent(i), "index %d", i)
	}
}
