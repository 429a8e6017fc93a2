package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		input  string
		want   float64
		wantOK bool
	}{
		{"3.2", 3.2, true},
		{"3,2", 3.2, true},
		{" 2.75 ", 2.75, true},
		{"4", 4, true},
		{"", 0, false},
		{"n/a", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseFloat(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.input)
		if ok {
			assert.InDelta(t, tt.want, got, 0.0001, "input %q", tt.input)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"19", 19, true},
		{"19.0", 19, true},
		{"19,0", 19, true},
		{"19.5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseInt(tt.input)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestFirstInt(t *testing.T) {
	n, ok := firstInt("19 von 22 Teilnehmenden haben diese Frage beantwortet")
	assert.True(t, ok)
	assert.Equal(t, 19, n)

	_, ok = firstInt("keine Zahl")
	assert.False(t, ok)
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}

	assert.Equal(t, "a", cell(row, 0))
	assert.Equal(t, "b", cell(row, 1))
	assert.Equal(t, "", cell(row, 5))
	assert.Equal(t, "", cell(nil, 0))
}
