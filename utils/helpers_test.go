package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Percentile(t *testing.T) {
	assert.Equal(t, 3, Median([]int{5, 1, 3, 2, 4}))
	assert.Equal(t, 7, Percentile([]int{7}, 95))
	assert.Equal(t, 10, Percentile([]int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 100))
	assert.Equal(t, 0.0, Percentile([]float64{}, 50))
}

func Test_ResultCompare(t *testing.T) {
	avg, largest := ResultCompare([]float64{1, 2, 3}, []float64{1, 2.5, 2})
	assert.InDelta(t, 0.5, avg, 1e-9)
	assert.InDelta(t, 1.0, largest, 1e-9)
}

func Test_LevelFromName(t *testing.T) {
	for name, want := range map[string]int{"info": 0, "": 0, "DEBUG": 1, "trace": 2, "warn": -1} {
		got, err := LevelFromName(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
	_, err := LevelFromName("loud")
	assert.Error(t, err)
}
