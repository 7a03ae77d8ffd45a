package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		page, size       int
		wantOff, wantLim int
	}{
		{"first page", 1, 10, 0, 10},
		{"third page", 3, 10, 20, 10},
		{"page below one", 0, 10, 0, 10},
		{"default size", 2, 0, 20, 20},
		{"size capped", 1, 1000, 0, 100},
	}
	for _, tt := range tests {
		off, lim := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.wantOff, off, tt.name)
		assert.Equal(t, tt.wantLim, lim, tt.name)
	}
}

func TestParseIntDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 7, ParseIntDefault("", 7))
	assert.Equal(t, 7, ParseIntDefault("seven", 7))
	assert.Equal(t, 3, ParseIntDefault("3", 7))
}

func TestTotalPages(t *testing.T) {
	t.Parallel()

	assert.EqualValues(t, 0, TotalPages(0, 10))
	assert.EqualValues(t, 1, TotalPages(10, 10))
	assert.EqualValues(t, 2, TotalPages(11, 10))
	assert.EqualValues(t, 0, TotalPages(5, 0))
}
