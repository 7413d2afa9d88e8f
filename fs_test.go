package minifs_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/diskfs/minifs"
)

func testParams() *minifs.Params {
	return &minifs.Params{SectorSize: 512, TotalSectors: 64, MaxFiles: 16, MaxSectorsPerFile: 4}
}

func bootFresh(t *testing.T) (*minifs.FileSystem, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.img")
	fs, err := minifs.Boot(path, testParams())
	require.NoError(t, err)
	return fs, path
}

func TestBootFormatsFreshImage(t *testing.T) {
	fs, _ := bootFresh(t)
	names, ferr := fs.ReadDir("/")
	require.Nil(t, ferr)
	require.Empty(t, names)
}

func TestBootRejectsMismatchedImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	_, err := minifs.Boot(path, testParams())
	require.NoError(t, err)

	_, err = minifs.Boot(path, &minifs.Params{SectorSize: 512, TotalSectors: 128, MaxFiles: 16, MaxSectorsPerFile: 4})
	require.Error(t, err)
}

func TestFileCreateWriteReadRoundTrip(t *testing.T) {
	fs, _ := bootFresh(t)

	require.Nil(t, fs.FileCreate("/hello.txt"))
	fd, ferr := fs.FileOpen("/hello.txt")
	require.Nil(t, ferr)

	n, ferr := fs.FileWrite(fd, []byte("hello, minifs"))
	require.Nil(t, ferr)
	require.Equal(t, 13, n)

	require.Nil(t, fs.FileSeek(fd, 0))
	buf := make([]byte, 32)
	n, ferr = fs.FileRead(fd, buf)
	require.Nil(t, ferr)
	require.Equal(t, "hello, minifs", string(buf[:n]))

	require.Nil(t, fs.FileClose(fd))
}

func TestFileCreateDuplicateFails(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.FileCreate("/a"))
	ferr := fs.FileCreate("/a")
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrCreate, ferr.Kind)
}

func TestFileOpenTwiceFails(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.FileCreate("/a"))
	fd, ferr := fs.FileOpen("/a")
	require.Nil(t, ferr)
	defer fs.FileClose(fd)

	_, ferr = fs.FileOpen("/a")
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrFileInUse, ferr.Kind)
}

func TestFileUnlinkWhileOpenFails(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.FileCreate("/a"))
	fd, ferr := fs.FileOpen("/a")
	require.Nil(t, ferr)
	defer fs.FileClose(fd)

	ferr = fs.FileUnlink("/a")
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrFileInUse, ferr.Kind)
}

func TestDirCreateReadUnlink(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.DirCreate("/sub"))
	require.Nil(t, fs.FileCreate("/sub/f"))

	names, ferr := fs.ReadDir("/sub")
	require.Nil(t, ferr)
	require.Equal(t, []string{"f"}, names)

	ferr = fs.DirUnlink("/sub")
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrDirNotEmpty, ferr.Kind)

	require.Nil(t, fs.FileUnlink("/sub/f"))
	require.Nil(t, fs.DirUnlink("/sub"))
}

func TestDirReadBufferProtocol(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.DirCreate("/dir-1"))
	require.Nil(t, fs.FileCreate("/dir-1/file-1"))
	require.Nil(t, fs.DirCreate("/dir-1/dir-2"))

	size, ferr := fs.DirSize("/dir-1")
	require.Nil(t, ferr)
	require.Equal(t, 2*minifs.DirentSize, size)

	buf := make([]byte, size)
	_, ferr = fs.DirRead("/dir-1", buf, size-1)
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrBufferTooSmall, ferr.Kind)

	n, ferr := fs.DirRead("/dir-1", buf, size)
	require.Nil(t, ferr)
	require.Equal(t, 2, n)
}

func TestDirUnlinkRootFails(t *testing.T) {
	fs, _ := bootFresh(t)
	ferr := fs.DirUnlink("/")
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrRootDir, ferr.Kind)
}

func TestFileSeekBounds(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.FileCreate("/f"))
	fd, ferr := fs.FileOpen("/f")
	require.Nil(t, ferr)

	n, ferr := fs.FileWrite(fd, make([]byte, 1024))
	require.Nil(t, ferr)
	require.Equal(t, 1024, n)

	ferr = fs.FileSeek(fd, 1024)
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrSeekOutOfBounds, ferr.Kind)

	require.Nil(t, fs.FileSeek(fd, 1023))
}

func TestWriteBeyondCapacityClipsByDefault(t *testing.T) {
	fs, _ := bootFresh(t) // MaxSectorsPerFile=4, SectorSize=512 => 2048-byte cap
	require.Nil(t, fs.FileCreate("/big"))
	fd, ferr := fs.FileOpen("/big")
	require.Nil(t, ferr)
	defer fs.FileClose(fd)

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	n, ferr := fs.FileWrite(fd, data)
	require.Nil(t, ferr)
	require.Equal(t, 2048, n)
}

func TestWriteBeyondCapacityCancelsWithTailCancelPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	fs, err := minifs.Boot(path, testParams(), minifs.WithTailPolicy(minifs.AlwaysCancelTailPolicy))
	require.NoError(t, err)

	require.Nil(t, fs.FileCreate("/big"))
	fd, ferr := fs.FileOpen("/big")
	require.Nil(t, ferr)
	defer fs.FileClose(fd)

	n, ferr := fs.FileWrite(fd, make([]byte, 4096))
	require.Nil(t, ferr)
	require.Equal(t, 0, n)
}

func TestWriteToFullFileFailsFileTooBigRegardlessOfPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.img")
	fs, err := minifs.Boot(path, testParams(), minifs.WithOverwritePolicy(minifs.AlwaysCancelOverwritePolicy))
	require.NoError(t, err)

	require.Nil(t, fs.FileCreate("/big")) // MaxSectorsPerFile=4, SectorSize=512 => 2048-byte cap
	fd, ferr := fs.FileOpen("/big")
	require.Nil(t, ferr)

	n, ferr := fs.FileWrite(fd, make([]byte, 2048))
	require.Nil(t, ferr)
	require.Equal(t, 2048, n)
	require.Nil(t, fs.FileClose(fd))

	// reopen at cursor 0: cursor is not at EOF, so with an
	// always-cancel overwrite policy the FILE_TOO_BIG check must still
	// fire unconditionally, before that policy is ever consulted.
	fd, ferr = fs.FileOpen("/big")
	require.Nil(t, ferr)
	defer fs.FileClose(fd)

	n, ferr = fs.FileWrite(fd, []byte("x"))
	require.Equal(t, 0, n)
	require.NotNil(t, ferr)
	require.Equal(t, minifs.ErrFileTooBig, ferr.Kind)
}

func TestSyncThenReboot(t *testing.T) {
	fs, path := bootFresh(t)
	require.Nil(t, fs.FileCreate("/persisted"))
	require.NoError(t, fs.Sync())

	fs2, err := minifs.Boot(path, testParams())
	require.NoError(t, err)
	names, ferr := fs2.ReadDir("/")
	require.Nil(t, ferr)
	require.Equal(t, []string{"persisted"}, names)
}

func TestConsistencyReportReflectsUsage(t *testing.T) {
	fs, _ := bootFresh(t)
	require.Nil(t, fs.FileCreate("/a"))
	require.Nil(t, fs.DirCreate("/b"))

	report, err := fs.CheckConsistency(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, report.InodesUsed) // root + /a + /b
}
