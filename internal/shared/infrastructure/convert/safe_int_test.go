package convert

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntToInt32(t *testing.T) {
	v, err := IntToInt32(25)
	require.NoError(t, err)
	assert.Equal(t, int32(25), v)

	_, err = IntToInt32(math.MaxInt32 + 1)
	assert.ErrorContains(t, err, "integer overflow")
	_, err = IntToInt32(math.MinInt32 - 1)
	assert.Error(t, err)
}

func TestIntToInt32Clamped(t *testing.T) {
	assert.Equal(t, int32(4), IntToInt32Clamped(4))
	assert.Equal(t, int32(math.MaxInt32), IntToInt32Clamped(math.MaxInt32+10))
	assert.Equal(t, int32(math.MinInt32), IntToInt32Clamped(math.MinInt32-10))
}
