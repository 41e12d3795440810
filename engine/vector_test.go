package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{name: "already unit", input: []float32{1, 0, 0}, expected: []float32{1, 0, 0}},
		{name: "scales down", input: []float32{3, 4}, expected: []float32{0.6, 0.8}},
		{name: "zero vector", input: []float32{0, 0, 0}, expected: []float32{0, 0, 0}},
		{name: "empty", input: []float32{}, expected: []float32{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeVector(tt.input)
			assert.InDeltaSlice(t, tt.expected, result, 1e-6)
		})
	}

	t.Run("does not modify input", func(t *testing.T) {
		input := []float32{3, 4}
		NormalizeVector(input)
		assert.Equal(t, []float32{3, 4}, input)
	})

	t.Run("result has unit length", func(t *testing.T) {
		result := NormalizeVector([]float32{0.3, -1.7, 2.2, 9})
		var sum float64
		for _, v := range result {
			sum += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-6)
	})
}

func TestCosine(t *testing.T) {
	a := NormalizeVector([]float32{1, 2, 3})
	assert.InDelta(t, 1.0, cosine(a, a), 1e-6)
	assert.LessOrEqual(t, cosine(a, a), float32(1))

	opposite := NormalizeVector([]float32{-1, -2, -3})
	assert.GreaterOrEqual(t, cosine(a, opposite), float32(-1))

	assert.Equal(t, float32(0), cosine([]float32{1, 0}, []float32{0, 1}))
}

func TestIsFinite(t *testing.T) {
	assert.True(t, isFinite([]float32{0.5, -1, 0}))
	assert.True(t, isFinite(nil))
	assert.False(t, isFinite([]float32{1, float32(math.NaN())}))
	assert.False(t, isFinite([]float32{float32(math.Inf(1)), 0}))
	assert.False(t, isFinite([]float32{0, float32(math.Inf(-1))}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), clamp(1.0000001, -1, 1))
	assert.Equal(t, float32(-1), clamp(-1.5, -1, 1))
	assert.Equal(t, float32(0.25), clamp(0.25, -1, 1))
}
