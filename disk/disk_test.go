package disk_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsfs-dev/vsfs/disk"
)

func block(b byte) disk.Block {
	blk := make(disk.Block, disk.BlockSize)
	for i := range blk {
		blk[i] = b
	}
	return blk
}

func TestMemDiskReadWrite(t *testing.T) {
	d := disk.NewMemDisk(10)

	sz, err := d.Size()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), sz)

	require.NoError(t, d.Write(3, block(0x7f)))
	got, err := d.Read(3)
	require.NoError(t, err)
	assert.Equal(t, block(0x7f), got)

	got, err = d.Read(4)
	require.NoError(t, err)
	assert.Equal(t, block(0), got, "unwritten blocks read as zero")
}

func TestMemDiskBounds(t *testing.T) {
	d := disk.NewMemDisk(4)

	_, err := d.Read(4)
	assert.Error(t, err)
	assert.Error(t, d.Write(4, block(1)))
	assert.Error(t, d.Write(0, make(disk.Block, 100)), "non-block-sized buffers are rejected")
}

func TestFileDiskRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.img")

	d, err := disk.NewFileDisk(path, 8)
	require.NoError(t, err)
	require.NoError(t, d.Write(5, block(0xce)))
	require.NoError(t, d.Barrier())
	require.NoError(t, d.Close())

	// Reopen sizes the disk from the file.
	d2, err := disk.OpenFileDisk(path)
	require.NoError(t, err)
	defer d2.Close()
	sz, err := d2.Size()
	require.NoError(t, err)
	assert.Equal(t, uint64(8), sz)
	got, err := d2.Read(5)
	require.NoError(t, err)
	assert.Equal(t, block(0xce), got)
}
