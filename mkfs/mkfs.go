// Package mkfs writes a fresh vsfs image: static superblock, zeroed
// journal, bitmaps with the root reservations, the root directory inode
// and its "." / ".." entries, and a zeroed data region.
//
// This is a one-shot bootstrap; it is not journaled and not recoverable
// if interrupted.
package mkfs

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
	"github.com/vsfs-dev/vsfs/fs"
)

// Write lays out a fresh filesystem on d, which must be at least
// common.TotalBlocks long.
func Write(d disk.Disk) error {
	sz, err := d.Size()
	if err != nil {
		return err
	}
	if sz < common.TotalBlocks {
		return fmt.Errorf("disk too small: %d blocks, need %d", sz, common.TotalBlocks)
	}

	now := uint32(time.Now().Unix())

	if err := d.Write(common.SuperBlk, fs.EncodeSuperblock(fs.ExpectedSuperblock())); err != nil {
		return err
	}

	zero := make(disk.Block, common.BlockSize)
	for i := uint64(0); i < common.JournalBlocks; i++ {
		if err := d.Write(common.JournalStart+i, zero); err != nil {
			return err
		}
	}

	// Inode 0 and data block 0 are the root directory.
	ibmap := make(disk.Block, common.BlockSize)
	fs.Bitmap(ibmap).Set(0)
	if err := d.Write(common.InodeBitmapBlk, ibmap); err != nil {
		return err
	}
	dbmap := make(disk.Block, common.BlockSize)
	fs.Bitmap(dbmap).Set(0)
	if err := d.Write(common.DataBitmapBlk, dbmap); err != nil {
		return err
	}

	root := fs.Inode{
		Type:  common.TypeDir,
		Links: 2, // "." and ".."
		Size:  uint32(2 * common.DirentSize),
		Ctime: now,
		Mtime: now,
	}
	root.Direct[0] = uint32(common.DataStart)

	itab := make(disk.Block, common.BlockSize)
	fs.InodeToBlock(itab, 0, root)
	if err := d.Write(common.InodeStart, itab); err != nil {
		return err
	}
	for i := uint64(1); i < common.InodeBlocks; i++ {
		if err := d.Write(common.InodeStart+i, zero); err != nil {
			return err
		}
	}

	rootDir := make(disk.Block, common.BlockSize)
	dot, err := fs.MkDirent(common.RootInum, ".")
	if err != nil {
		return err
	}
	dotdot, err := fs.MkDirent(common.RootInum, "..")
	if err != nil {
		return err
	}
	// The root is its own parent, so both entries resolve to inode 0.
	fs.DirentToBlock(rootDir, 0, dot)
	fs.DirentToBlock(rootDir, 1, dotdot)
	if err := d.Write(common.DataStart, rootDir); err != nil {
		return err
	}

	for i := uint64(1); i < common.DataBlocks; i++ {
		if err := d.Write(common.DataStart+i, zero); err != nil {
			return err
		}
	}

	if err := d.Barrier(); err != nil {
		return err
	}
	slog.Debug("mkfs: wrote image", "blocks", common.TotalBlocks, "inodes", common.NInode)
	return nil
}

// WriteImage creates (or truncates to size) the image file at path and
// formats it.
func WriteImage(path string) error {
	d, err := disk.NewFileDisk(path, common.TotalBlocks)
	if err != nil {
		return err
	}
	defer d.Close()
	return Write(d)
}
