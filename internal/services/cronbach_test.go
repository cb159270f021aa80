package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCronbachAlpha(t *testing.T) {
	tests := []struct {
		name   string
		matrix [][]float64
		want   float64
	}{
		{"perfect correlation", [][]float64{{1, 1, 1}, {2, 2, 2}, {3, 3, 3}, {4, 4, 4}}, 1},
		{"empty", nil, 0},
		{"single question", [][]float64{{1}, {2}}, 0},
		{"ragged", [][]float64{{1, 2}, {3}}, 0},
		{"no variance", [][]float64{{3, 3}, {3, 3}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CronbachAlpha(tt.matrix), 1e-9)
		})
	}
}

func TestCronbachAlphaBounds(t *testing.T) {
	got := CronbachAlpha([][]float64{
		{1, 2, 3},
		{2, 1, 4},
		{3, 0, 5},
		{4, -1, 6},
	})
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}

func TestCronbachAlphaKnownValue(t *testing.T) {
	// item variances 0.25 each, total variance 1 -> 2*(1-0.5/1) = 1
	got := CronbachAlpha([][]float64{{1, 2}, {2, 3}})
	assert.InDelta(t, 1.0, got, 1e-9)

	// item variances 1.25 each, total variance 4 -> 2*(1-2.5/4)
	got = CronbachAlpha([][]float64{{1, 2}, {2, 1}, {3, 4}, {4, 3}})
	assert.InDelta(t, 0.75, got, 1e-9)
}
