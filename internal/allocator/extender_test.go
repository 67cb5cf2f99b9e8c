package allocator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceExtenderGrowsHighWaterMark(t *testing.T) {
	ext, err := NewSliceExtender(64)
	require.NoError(t, err)

	a1, err := ext.Extend(16)
	require.NoError(t, err)

	a2, err := ext.Extend(16)
	require.NoError(t, err)

	require.Equal(t, a1+16, a2)

	lo, hi := ext.Bounds()
	require.Equal(t, a1, lo)
	require.Equal(t, a1+32, hi)
}

func TestSliceExtenderExhaustion(t *testing.T) {
	ext, err := NewSliceExtender(16)
	require.NoError(t, err)

	_, err = ext.Extend(16)
	require.NoError(t, err)

	_, err = ext.Extend(1)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrArenaExhausted))
}

func TestNewSliceExtenderRejectsZeroCapacity(t *testing.T) {
	_, err := NewSliceExtender(0)
	require.Error(t, err)
}
