package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKeysSorted(t *testing.T) {
	m := map[string]int{"G": 1, "Am": 2, "C": 3}

	assert := assert.New(t)
	assert.Equal([]string{"Am", "C", "G"}, GetKeys(m))
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0.1, Clamp(0.05, 0.1, 1.0))
	assert.Equal(1.0, Clamp(1.2, 0.1, 1.0))
	assert.Equal(0.5, Clamp(0.5, 0.1, 1.0))
}

func TestClampIndex(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(2, ClampIndex(7, 3))
	assert.Equal(0, ClampIndex(-1, 3))
	assert.Equal(1, ClampIndex(1, 3))
}

func TestSum(t *testing.T) {
	assert.Equal(t, 6, Sum([]int{1, 2, 3}))
}
