package bitmap

import (
	"testing"

	"github.com/diskfs/minifs/internal/blockdevice"
	"github.com/stretchr/testify/require"
)

func newDevice(t *testing.T) *blockdevice.Device {
	t.Helper()
	dev, err := blockdevice.New(512, 8, nil)
	require.NoError(t, err)
	return dev
}

func TestAllocatorInitReservesBits(t *testing.T) {
	dev := newDevice(t)
	a := New(dev, 0, 1, 64, 0)
	require.NoError(t, a.Init(1))

	set, err := a.IsSet(0)
	require.NoError(t, err)
	require.True(t, set)

	set, err = a.IsSet(1)
	require.NoError(t, err)
	require.False(t, set)
}

func TestAllocatorFirstUnusedThenReset(t *testing.T) {
	dev := newDevice(t)
	a := New(dev, 0, 1, 16, 0)
	require.NoError(t, a.Init(1))

	idx, ok, err := a.FirstUnused()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, idx)

	count, err := a.PopCount()
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, a.Reset(idx))
	count, err = a.PopCount()
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAllocatorResetAlreadyFreeFails(t *testing.T) {
	dev := newDevice(t)
	a := New(dev, 0, 1, 16, 0)
	require.NoError(t, a.Init(0))
	require.Error(t, a.Reset(5))
}

func TestAllocatorResetProtectedFails(t *testing.T) {
	dev := newDevice(t)
	a := New(dev, 0, 1, 16, 4)
	require.NoError(t, a.Init(4))
	require.Error(t, a.Reset(2))

	idx, ok, err := a.FirstUnused()
	require.NoError(t, err)
	require.True(t, ok)
	require.GreaterOrEqual(t, idx, 4)
	require.NoError(t, a.Reset(idx))
}

func TestAllocatorExhaustion(t *testing.T) {
	dev := newDevice(t)
	a := New(dev, 0, 1, 4, 0)
	require.NoError(t, a.Init(0))
	for i := 0; i < 4; i++ {
		_, ok, err := a.FirstUnused()
		require.NoError(t, err)
		require.True(t, ok)
	}
	_, ok, err := a.FirstUnused()
	require.NoError(t, err)
	require.False(t, ok)
}
