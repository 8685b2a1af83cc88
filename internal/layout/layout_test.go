package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPosition(t *testing.T) {
	tests := []struct {
		i    int
		x, y float64
	}{
		{0, 50, 50},
		{1, 500, 50},
		{2, 950, 50},
		{3, 50, 450},
		{4, 500, 450},
		{7, 500, 850},
	}

	for _, tt := range tests {
		x, y := Position(tt.i)
		assert.Equal(t, tt.x, x, "x at %d", tt.i)
		assert.Equal(t, tt.y, y, "y at %d", tt.i)
	}
}

func TestColorCycles(t *testing.T) {
	assert.Len(t, Palette, 8)
	for i := 0; i < 20; i++ {
		assert.Equal(t, Palette[i%8], Color(i))
	}
	assert.Equal(t, Color(0), Color(8))
	assert.NotEqual(t, Color(0), Color(1))
}
