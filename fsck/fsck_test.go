package fsck_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/fsck"
	"github.com/vsfs-dev/vsfs/fstxn"
	"github.com/vsfs-dev/vsfs/jrnl"
	"github.com/vsfs-dev/vsfs/mkfs"
)

func freshDisk(t *testing.T) disk.Disk {
	t.Helper()
	d := disk.NewMemDisk(common.TotalBlocks)
	require.NoError(t, mkfs.Write(d))
	return d
}

func check(t *testing.T, d disk.Disk) *fsck.Report {
	t.Helper()
	report, err := fsck.Check(d, fsck.Opts{})
	require.NoError(t, err)
	return report
}

func patchInode(t *testing.T, d disk.Disk, i common.Inum, f func(*fs.Inode)) {
	t.Helper()
	sb := fs.ExpectedSuperblock()
	blkno := sb.InodeBlock(i)
	blk, err := d.Read(blkno)
	require.NoError(t, err)
	ino := fs.InodeFromBlock(blk, sb.InodeOffset(i))
	f(&ino)
	fs.InodeToBlock(blk, sb.InodeOffset(i), ino)
	require.NoError(t, d.Write(blkno, blk))
}

func patchBitmap(t *testing.T, d disk.Disk, blkno common.Bnum, f func(fs.Bitmap)) {
	t.Helper()
	blk, err := d.Read(blkno)
	require.NoError(t, err)
	f(fs.Bitmap(blk))
	require.NoError(t, d.Write(blkno, blk))
}

func violationsContaining(r *fsck.Report, substr string) int {
	n := 0
	for _, v := range r.Violations {
		if strings.Contains(v.Msg, substr) {
			n++
		}
	}
	return n
}

func TestFreshImageIsConsistent(t *testing.T) {
	d := freshDisk(t)
	report := check(t, d)
	assert.Empty(t, report.Violations)
}

func TestSuperblockDriftReported(t *testing.T) {
	d := freshDisk(t)
	blk, err := d.Read(common.SuperBlk)
	require.NoError(t, err)
	sb, err := fs.DecodeSuperblock(blk)
	require.NoError(t, err)
	sb.TotalBlocks = 1234
	require.NoError(t, d.Write(common.SuperBlk, fs.EncodeSuperblock(sb)))

	report := check(t, d)
	assert.Equal(t, 1, report.Count())
	assert.Equal(t, 1, violationsContaining(report, "total blocks"))
}

func TestDoubleAllocationReportedOnce(t *testing.T) {
	d := freshDisk(t)

	// Two files sharing one data block; everything else about them is
	// consistent, so the only finding must be the double allocation.
	shared := uint32(common.DataStart + 1)
	for _, inum := range []common.Inum{1, 2} {
		patchInode(t, d, inum, func(ino *fs.Inode) {
			ino.Type = common.TypeFile
			ino.Links = 1
			ino.Size = uint32(common.BlockSize)
			ino.Direct[0] = shared
		})
	}
	patchBitmap(t, d, common.InodeBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(1)
		bm.Set(2)
	})
	patchBitmap(t, d, common.DataBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(1)
	})

	// Matching dirents keep the link counts honest.
	rootBlk, err := d.Read(common.DataStart)
	require.NoError(t, err)
	de1, err := fs.MkDirent(1, "one")
	require.NoError(t, err)
	de2, err := fs.MkDirent(2, "two")
	require.NoError(t, err)
	fs.DirentToBlock(rootBlk, 2, de1)
	fs.DirentToBlock(rootBlk, 3, de2)
	require.NoError(t, d.Write(common.DataStart, rootBlk))
	patchInode(t, d, common.RootInum, func(ino *fs.Inode) {
		ino.Size += uint32(2 * common.DirentSize)
	})

	report := check(t, d)
	assert.Equal(t, 1, report.Count(), "findings: %v", report.Violations)
	assert.Equal(t, 1, violationsContaining(report, "referenced by both"))
}

func TestLinkCountDriftReported(t *testing.T) {
	d := freshDisk(t)
	st, err := fs.Open(d)
	require.NoError(t, err)
	j := jrnl.New(st)
	_, err = fstxn.Create(st, j, "a.txt")
	require.NoError(t, err)
	require.NoError(t, j.ReplayAndClear())

	patchInode(t, d, 1, func(ino *fs.Inode) {
		ino.Links++
	})

	report := check(t, d)
	assert.Equal(t, 1, report.Count())
	assert.Equal(t, 1, violationsContaining(report, "link count"))
}

func TestDataBitmapDriftReportedBothWays(t *testing.T) {
	d := freshDisk(t)

	// Root's data block is referenced; clearing its bit is one kind of
	// drift. Setting a bit no inode references is the other.
	patchBitmap(t, d, common.DataBitmapBlk, func(bm fs.Bitmap) {
		bm.Clear(0)
		bm.Set(5)
	})

	report := check(t, d)
	assert.Equal(t, 2, report.Count(), "findings: %v", report.Violations)
	assert.Equal(t, 1, violationsContaining(report, "referenced but bitmap is clear"))
	assert.Equal(t, 1, violationsContaining(report, "used but no inode references it"))
}

func TestInodeBitmapDriftReported(t *testing.T) {
	d := freshDisk(t)
	patchBitmap(t, d, common.InodeBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(3)
	})

	report := check(t, d)
	// Reported by the per-inode agreement pass and the bitmap sweep.
	assert.Equal(t, 2, report.Count(), "findings: %v", report.Violations)
	assert.Equal(t, 1, violationsContaining(report, "allocation mismatch"))
	assert.Equal(t, 1, violationsContaining(report, "marks 3 used but inode is free"))
}

func TestStrayBitmapBitsReported(t *testing.T) {
	d := freshDisk(t)
	patchBitmap(t, d, common.InodeBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(common.NInode) // first bit past the valid range
	})
	patchBitmap(t, d, common.DataBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(common.DataBlocks + 7)
	})

	report := check(t, d)
	assert.Equal(t, 2, report.Count(), "findings: %v", report.Violations)
	assert.Equal(t, 2, violationsContaining(report, "stray bit"))
}

func TestDirectoryChecks(t *testing.T) {
	t.Run("misaligned size", func(t *testing.T) {
		d := freshDisk(t)
		patchInode(t, d, common.RootInum, func(ino *fs.Inode) {
			ino.Size += 7
		})
		report := check(t, d)
		assert.Equal(t, 1, violationsContaining(report, "not dirent-aligned"))
	})

	t.Run("missing dot entries", func(t *testing.T) {
		d := freshDisk(t)
		blk, err := d.Read(common.DataStart)
		require.NoError(t, err)
		for i := range blk {
			blk[i] = 0
		}
		require.NoError(t, d.Write(common.DataStart, blk))

		report := check(t, d)
		// "." and ".." are gone, and with them the root's two link refs.
		assert.Equal(t, 1, violationsContaining(report, "missing '.' entry"))
		assert.Equal(t, 1, violationsContaining(report, "missing '..' entry"))
		assert.Equal(t, 1, violationsContaining(report, "link count"))
	})

	t.Run("entry referencing free inode", func(t *testing.T) {
		d := freshDisk(t)
		blk, err := d.Read(common.DataStart)
		require.NoError(t, err)
		de, err := fs.MkDirent(9, "ghost")
		require.NoError(t, err)
		fs.DirentToBlock(blk, 2, de)
		require.NoError(t, d.Write(common.DataStart, blk))
		patchInode(t, d, common.RootInum, func(ino *fs.Inode) {
			ino.Size += uint32(common.DirentSize)
		})

		report := check(t, d)
		assert.Equal(t, 1, violationsContaining(report, "references free inode"))
	})

	t.Run("size beyond direct blocks", func(t *testing.T) {
		d := freshDisk(t)
		patchInode(t, d, common.RootInum, func(ino *fs.Inode) {
			ino.Size = uint32(2 * common.BlockSize)
		})
		report := check(t, d)
		assert.Equal(t, 1, violationsContaining(report, "missing data block"))
	})
}

func TestEntryReferencingLaterInodeNotFlagged(t *testing.T) {
	d := freshDisk(t)

	// The root directory is walked before inode 40 is visited; its
	// allocation must still be visible to the entry check.
	patchInode(t, d, 40, func(ino *fs.Inode) {
		ino.Type = common.TypeFile
		ino.Links = 1
	})
	patchBitmap(t, d, common.InodeBitmapBlk, func(bm fs.Bitmap) {
		bm.Set(40)
	})
	blk, err := d.Read(common.DataStart)
	require.NoError(t, err)
	de, err := fs.MkDirent(40, "late")
	require.NoError(t, err)
	fs.DirentToBlock(blk, 2, de)
	require.NoError(t, d.Write(common.DataStart, blk))
	patchInode(t, d, common.RootInum, func(ino *fs.Inode) {
		ino.Size += uint32(common.DirentSize)
	})

	report := check(t, d)
	assert.Empty(t, report.Violations)
}

func TestPendingJournalRefused(t *testing.T) {
	d := freshDisk(t)
	st, err := fs.Open(d)
	require.NoError(t, err)
	_, err = fstxn.Create(st, jrnl.New(st), "a.txt")
	require.NoError(t, err)

	_, err = fsck.Check(d, fsck.Opts{})
	assert.ErrorIs(t, err, fsck.ErrJournalNotEmpty)

	report, err := fsck.Check(d, fsck.Opts{IgnoreJournal: true})
	require.NoError(t, err)
	assert.Empty(t, report.Violations)
}
