// Package fstxn implements structural mutations as journal transactions.
//
// A mutation computes every affected block in memory, then logs the lot
// as one atomic group. The primary structures of the image are never
// touched directly; they change only when the journal is replayed. On
// success the mutation is durable in the log even before that happens.
package fstxn

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/jrnl"
)

var (
	ErrNoFreeInodes  = errors.New("no free inodes")
	ErrDirectoryFull = errors.New("directory full")
)

// Create allocates a new empty file named name in the root directory.
//
// The transaction covers the inode bitmap, the inode-table block holding
// the new inode, the root's inode-table block when it is a different
// one, and the root directory's data block. jrnl.ErrJournalFull (and any
// I/O error) propagates with the image unmodified.
func Create(st *fs.FsState, j *jrnl.Journal, name string) (common.Inum, error) {
	de, err := fs.MkDirent(0, name)
	if err != nil {
		return 0, err
	}

	// Lowest free inode, claimed in a copy of the bitmap.
	ibmapBlk, err := st.D.Read(common.Bnum(st.Sb.InodeBitmap))
	if err != nil {
		return 0, fmt.Errorf("read inode bitmap: %w", err)
	}
	ibmap := fs.Bitmap(ibmapBlk)
	idx, ok := ibmap.FindFree(uint64(st.Sb.InodeCount))
	if !ok {
		return 0, ErrNoFreeInodes
	}
	ibmap.Set(idx)
	inum := common.Inum(idx)
	de.Inum = uint32(inum)

	// Initialize the new inode in a copy of its table block.
	inodeBlkNo := st.Sb.InodeBlock(inum)
	inodeBlk, err := st.D.Read(inodeBlkNo)
	if err != nil {
		return 0, fmt.Errorf("read inode block %d: %w", inodeBlkNo, err)
	}
	now := uint32(time.Now().Unix())
	fs.InodeToBlock(inodeBlk, st.Sb.InodeOffset(inum), fs.Inode{
		Type:  common.TypeFile,
		Links: 1,
		Size:  0,
		Ctime: now,
		Mtime: now,
	})

	// Grow the root directory by one dirent. The root inode may live in
	// the block just loaded or in a separate one; only a distinct block
	// is staged additionally.
	rootBlkNo := st.Sb.InodeBlock(common.RootInum)
	rootBlk := inodeBlk
	rootShared := rootBlkNo == inodeBlkNo
	if !rootShared {
		rootBlk, err = st.D.Read(rootBlkNo)
		if err != nil {
			return 0, fmt.Errorf("read root inode block %d: %w", rootBlkNo, err)
		}
	}
	rootOff := st.Sb.InodeOffset(common.RootInum)
	root := fs.InodeFromBlock(rootBlk, rootOff)
	if root.Type != common.TypeDir {
		return 0, fmt.Errorf("root inode is not a directory (type %d)", root.Type)
	}
	root.Size += uint32(common.DirentSize)
	root.Mtime = now
	fs.InodeToBlock(rootBlk, rootOff, root)

	// First free slot in the root directory's first data block. A
	// pointer outside the data region means a corrupted image; refuse
	// rather than scan (and later journal) a metadata block.
	dirBlkNo := common.Bnum(root.Direct[0])
	if dirBlkNo < common.Bnum(st.Sb.DataStart) || dirBlkNo >= common.Bnum(st.Sb.TotalBlocks) {
		return 0, fmt.Errorf("root directory data block %d outside data region", dirBlkNo)
	}
	dirBlk, err := st.D.Read(dirBlkNo)
	if err != nil {
		return 0, fmt.Errorf("read root directory block %d: %w", dirBlkNo, err)
	}
	slot := uint64(0)
	for ; slot < fs.DirentsPerBlock; slot++ {
		if fs.DirentFromBlock(dirBlk, slot).IsFree() {
			break
		}
	}
	if slot == fs.DirentsPerBlock {
		return 0, ErrDirectoryFull
	}
	fs.DirentToBlock(dirBlk, slot, de)

	tx := jrnl.Begin()
	tx.Write(common.Bnum(st.Sb.InodeBitmap), ibmapBlk)
	tx.Write(inodeBlkNo, inodeBlk)
	if !rootShared {
		tx.Write(rootBlkNo, rootBlk)
	}
	tx.Write(dirBlkNo, dirBlk)
	if err := j.Append(tx); err != nil {
		return 0, err
	}
	slog.Debug("create: journaled", "name", name, "inum", inum, "slot", slot)
	return inum, nil
}
