// Package fsck is the offline consistency validator.
//
// It walks the settled (non-journal) structures of an image in a single
// read-only pass and accumulates every violation it finds: superblock
// drift from the static layout, inode/bitmap disagreement, direct-pointer
// range and double-allocation faults, malformed directories, and
// link-count drift. It never mutates the image.
//
// The checks assume a drained journal; by default Check refuses an image
// whose journal still holds committed bytes, since the primary structures
// would be stale.
package fsck

import (
	"errors"
	"fmt"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/jrnl"
)

// ErrJournalNotEmpty means the image has pending journaled transactions;
// replay them (or pass Opts.IgnoreJournal) before validating.
var ErrJournalNotEmpty = errors.New("journal has pending transactions; run install first")

type Opts struct {
	// IgnoreJournal validates the primary structures even when the
	// journal holds committed-but-uninstalled transactions.
	IgnoreJournal bool
}

// Check validates the whole image and returns the accumulated report.
// The error is non-nil only for fatal I/O problems or a pending journal;
// inconsistencies go in the report.
func Check(d disk.Disk, opts Opts) (*Report, error) {
	if !opts.IgnoreJournal {
		blk, err := d.Read(common.JournalStart)
		if err != nil {
			return nil, fmt.Errorf("read journal header: %w", err)
		}
		if jrnl.PendingHeader(blk) {
			return nil, ErrJournalNotEmpty
		}
	}

	r := &Report{}

	sbBlk, err := d.Read(common.SuperBlk)
	if err != nil {
		return nil, fmt.Errorf("read superblock: %w", err)
	}
	sb, err := fs.DecodeSuperblock(sbBlk)
	if err != nil {
		return nil, err
	}
	checkSuperblock(r, sb)

	ibmapBlk, err := d.Read(common.InodeBitmapBlk)
	if err != nil {
		return nil, fmt.Errorf("read inode bitmap: %w", err)
	}
	dbmapBlk, err := d.Read(common.DataBitmapBlk)
	if err != nil {
		return nil, fmt.Errorf("read data bitmap: %w", err)
	}
	ibmap := fs.Bitmap(ibmapBlk)
	dbmap := fs.Bitmap(dbmapBlk)

	inodes := make([]fs.Inode, common.NInode)
	for b := uint64(0); b < common.InodeBlocks; b++ {
		blk, err := d.Read(common.InodeStart + b)
		if err != nil {
			return nil, fmt.Errorf("read inode table block %d: %w", common.InodeStart+b, err)
		}
		for s := uint64(0); s < common.InodeBlk; s++ {
			inodes[b*common.InodeBlk+s] = fs.InodeFromBlock(blk, s*common.InodeSize)
		}
	}

	// The allocation table must be complete before any directory walk:
	// entries may reference inodes the main loop has not reached yet.
	used := make([]bool, common.NInode)
	for i := uint64(0); i < common.NInode; i++ {
		used[i] = inodes[i].Type != common.TypeFree
	}
	linkRefs := make([]uint32, common.NInode)
	dataOwner := make([]int, common.DataBlocks)
	for i := range dataOwner {
		dataOwner[i] = -1
	}
	dataRef := make([]bool, common.DataBlocks)

	for i := uint64(0); i < common.NInode; i++ {
		ino := inodes[i]
		allocated := used[i]
		if allocated != ibmap.Test(i) {
			r.addf("inode %d allocation mismatch (inode vs bitmap)", i)
		}
		if !allocated {
			continue
		}

		if ino.Type > common.TypeDir {
			r.addf("inode %d has invalid type %d", i, ino.Type)
		}

		required := ino.NBlocks()
		if required > common.NDirect {
			r.addf("inode %d size %d exceeds direct pointers", i, ino.Size)
		}

		seen := uint64(0)
		for _, blk := range ino.Direct {
			if blk == 0 {
				continue
			}
			seen++
			bn := common.Bnum(blk)
			if bn < common.DataStart || bn >= common.DataStart+common.Bnum(common.DataBlocks) {
				r.addf("inode %d points outside data region (block %d)", i, blk)
				continue
			}
			di := bn - common.DataStart
			if dataOwner[di] != -1 && dataOwner[di] != int(i) {
				r.addf("data block %d referenced by both inode %d and inode %d",
					blk, dataOwner[di], i)
			}
			dataOwner[di] = int(i)
			dataRef[di] = true
		}

		if seen < required {
			r.addf("inode %d lacks blocks for declared size (need %d have %d)", i, required, seen)
		}
		if required == 0 && seen > 0 {
			r.addf("inode %d has data blocks but zero size", i)
		}

		if ino.Type == common.TypeDir {
			checkDirectory(r, d, ino, i, used, linkRefs)
		}
	}

	for i := uint64(0); i < common.NInode; i++ {
		if !used[i] {
			continue
		}
		if uint32(inodes[i].Links) != linkRefs[i] {
			r.addf("inode %d link count %d disagrees with directory refs %d",
				i, inodes[i].Links, linkRefs[i])
		}
	}

	for i := uint64(0); i < common.NInode; i++ {
		bit := ibmap.Test(i)
		if bit && !used[i] {
			r.addf("inode bitmap marks %d used but inode is free", i)
		}
		if !bit && used[i] {
			r.addf("inode bitmap misses allocated inode %d", i)
		}
	}
	checkZeroTail(r, ibmap, common.NInode, "inode")

	for i := uint64(0); i < common.DataBlocks; i++ {
		bit := dbmap.Test(i)
		if bit && !dataRef[i] {
			r.addf("data bitmap marks block %d used but no inode references it",
				common.DataStart+i)
		}
		if !bit && dataRef[i] {
			r.addf("data block %d referenced but bitmap is clear", common.DataStart+i)
		}
	}
	checkZeroTail(r, dbmap, common.DataBlocks, "data")

	return r, nil
}

// CheckImage validates the image file at path.
func CheckImage(path string, opts Opts) (*Report, error) {
	d, err := disk.OpenFileDisk(path)
	if err != nil {
		return nil, err
	}
	defer d.Close()
	return Check(d, opts)
}

func checkSuperblock(r *Report, sb fs.Superblock) {
	want := fs.ExpectedSuperblock()
	if sb.Magic != want.Magic {
		r.addf("invalid superblock magic 0x%08x", sb.Magic)
	}
	if sb.BlockSize != want.BlockSize {
		r.addf("unexpected block size %d", sb.BlockSize)
	}
	if sb.TotalBlocks != want.TotalBlocks {
		r.addf("unexpected total blocks %d", sb.TotalBlocks)
	}
	if sb.InodeCount != want.InodeCount {
		r.addf("unexpected inode count %d", sb.InodeCount)
	}
	if sb.JournalBlock != want.JournalBlock {
		r.addf("journal block index mismatch %d", sb.JournalBlock)
	}
	if sb.InodeBitmap != want.InodeBitmap {
		r.addf("inode bitmap index mismatch %d", sb.InodeBitmap)
	}
	if sb.DataBitmap != want.DataBitmap {
		r.addf("data bitmap index mismatch %d", sb.DataBitmap)
	}
	if sb.InodeStart != want.InodeStart {
		r.addf("inode start index mismatch %d", sb.InodeStart)
	}
	if sb.DataStart != want.DataStart {
		r.addf("data start index mismatch %d", sb.DataStart)
	}
}

func checkDirectory(r *Report, d disk.Disk, ino fs.Inode, inum uint64,
	used []bool, linkRefs []uint32) {
	if uint64(ino.Size)%common.DirentSize != 0 {
		r.addf("inode %d directory size %d is not dirent-aligned", inum, ino.Size)
		return
	}

	remaining := uint64(ino.Size)
	sawDot := false
	sawDotDot := false

	for i := uint64(0); i < common.NDirect && remaining > 0; i++ {
		blk := ino.Direct[i]
		if blk == 0 {
			r.addf("inode %d directory missing data block for bytes still remaining", inum)
			return
		}
		if common.Bnum(blk) >= common.TotalBlocks {
			r.addf("inode %d directory data block %d outside image", inum, blk)
			return
		}
		data, err := d.Read(common.Bnum(blk))
		if err != nil {
			r.addf("inode %d directory block %d unreadable: %v", inum, blk, err)
			return
		}
		chunk := remaining
		if chunk > common.BlockSize {
			chunk = common.BlockSize
		}
		for e := uint64(0); e < chunk/common.DirentSize; e++ {
			de := fs.DirentFromBlock(data, e)
			if de.IsFree() {
				continue
			}
			if uint64(de.Inum) >= common.NInode {
				r.addf("inode %d directory entry points to out-of-range inode %d", inum, de.Inum)
				continue
			}
			if !used[de.Inum] {
				r.addf("inode %d directory entry references free inode %d", inum, de.Inum)
			}
			name, terminated := de.Name()
			if !terminated {
				r.addf("inode %d directory entry has unterminated name", inum)
				continue
			}
			if name == "" {
				r.addf("inode %d directory entry has empty name", inum)
				continue
			}
			linkRefs[de.Inum]++
			if name == "." {
				if uint64(de.Inum) != inum {
					r.addf("inode %d '.' entry points to %d", inum, de.Inum)
				}
				sawDot = true
			} else if name == ".." {
				sawDotDot = true
			}
		}
		remaining -= chunk
	}

	if remaining != 0 {
		r.addf("inode %d directory uses more data than direct pointers cover", inum)
	}
	if ino.Size > 0 {
		if !sawDot {
			r.addf("inode %d directory missing '.' entry", inum)
		}
		if !sawDotDot {
			r.addf("inode %d directory missing '..' entry", inum)
		}
	}
}

func checkZeroTail(r *Report, bm fs.Bitmap, validBits uint64, name string) {
	for bit := validBits; bit < common.BlockSize*8; bit++ {
		if bm.Test(bit) {
			r.addf("%s bitmap has stray bit set at %d", name, bit)
			return
		}
	}
}
