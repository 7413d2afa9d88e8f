package blockdevice

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadWriteSectorRoundTrip(t *testing.T) {
	d, err := New(512, 16, nil)
	require.NoError(t, err)

	in := make([]byte, 512)
	for i := range in {
		in[i] = byte(i)
	}
	require.NoError(t, d.WriteSector(3, in))

	out := make([]byte, 512)
	require.NoError(t, d.ReadSector(3, out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("sector round trip mismatch (-want +got):\n%s", diff)
	}

	// sectors other than 3 remain untouched
	zero := make([]byte, 512)
	require.NoError(t, d.ReadSector(4, zero))
	require.True(t, allZero(zero))
}

func TestReadWriteSectorOutOfRange(t *testing.T) {
	d, err := New(512, 4, nil)
	require.NoError(t, err)
	buf := make([]byte, 512)
	require.Error(t, d.ReadSector(-1, buf))
	require.Error(t, d.ReadSector(4, buf))
	require.Error(t, d.WriteSector(99, buf))
}

func TestWrongSizedBuffer(t *testing.T) {
	d, err := New(512, 4, nil)
	require.NoError(t, err)
	require.Error(t, d.ReadSector(0, make([]byte, 10)))
	require.Error(t, d.WriteSector(0, make([]byte, 10)))
}

func TestLoadMissingFile(t *testing.T) {
	d, err := New(512, 4, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	err = d.Load(filepath.Join(dir, "nope.img"))
	require.ErrorIs(t, err, ErrNotExist)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	d, err := New(512, 4, nil)
	require.NoError(t, err)
	buf := make([]byte, 512)
	buf[0] = 0xEF
	buf[1] = 0xBE
	buf[2] = 0xAD
	buf[3] = 0xDE
	require.NoError(t, d.WriteSector(0, buf))

	path := filepath.Join(t.TempDir(), "image.img")
	require.NoError(t, d.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.EqualValues(t, 512*4, info.Size())

	d2, err := New(512, 4, nil)
	require.NoError(t, err)
	require.NoError(t, d2.Load(path))

	out := make([]byte, 512)
	require.NoError(t, d2.ReadSector(0, out))
	if diff := cmp.Diff(buf, out); diff != "" {
		t.Errorf("save/load round trip mismatch (-want +got):\n%s", diff)
	}
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
