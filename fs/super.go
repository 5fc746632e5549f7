// Package fs defines the on-disk structures of a vsfs image (superblock,
// inodes, directory entries, allocation bitmaps) and a handle over an open
// image.
//
// All records are fixed-size and little-endian with zeroed reserved tails;
// each codec here serializes to an exact byte count.
package fs

import (
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
)

// Superblock is block 0 of the image. Written once by mkfs and never
// mutated afterward.
type Superblock struct {
	Magic       uint32
	BlockSize   uint32
	TotalBlocks uint32
	InodeCount  uint32

	JournalBlock uint32
	InodeBitmap  uint32
	DataBitmap   uint32
	InodeStart   uint32
	DataStart    uint32
}

// ExpectedSuperblock is the superblock the static layout dictates.
func ExpectedSuperblock() Superblock {
	return Superblock{
		Magic:        common.FsMagic,
		BlockSize:    uint32(common.BlockSize),
		TotalBlocks:  uint32(common.TotalBlocks),
		InodeCount:   uint32(common.NInode),
		JournalBlock: uint32(common.JournalStart),
		InodeBitmap:  uint32(common.InodeBitmapBlk),
		DataBitmap:   uint32(common.DataBitmapBlk),
		InodeStart:   uint32(common.InodeStart),
		DataStart:    uint32(common.DataStart),
	}
}

const superFields = 9

// EncodeSuperblock returns a full block holding sb.
func EncodeSuperblock(sb Superblock) disk.Block {
	enc := marshal.NewEnc(common.BlockSize)
	enc.PutInt32(sb.Magic)
	enc.PutInt32(sb.BlockSize)
	enc.PutInt32(sb.TotalBlocks)
	enc.PutInt32(sb.InodeCount)
	enc.PutInt32(sb.JournalBlock)
	enc.PutInt32(sb.InodeBitmap)
	enc.PutInt32(sb.DataBitmap)
	enc.PutInt32(sb.InodeStart)
	enc.PutInt32(sb.DataStart)
	enc.PutBytes(make([]byte, common.BlockSize-superFields*4))
	return enc.Finish()
}

// DecodeSuperblock parses the first 128 bytes of a block. It does not
// judge the field values; callers check the magic (and fsck checks
// everything else).
func DecodeSuperblock(blk disk.Block) (Superblock, error) {
	if uint64(len(blk)) < common.InodeSize {
		return Superblock{}, fmt.Errorf("superblock buffer too short (%d bytes)", len(blk))
	}
	dec := marshal.NewDec(blk)
	var sb Superblock
	sb.Magic = dec.GetInt32()
	sb.BlockSize = dec.GetInt32()
	sb.TotalBlocks = dec.GetInt32()
	sb.InodeCount = dec.GetInt32()
	sb.JournalBlock = dec.GetInt32()
	sb.InodeBitmap = dec.GetInt32()
	sb.DataBitmap = dec.GetInt32()
	sb.InodeStart = dec.GetInt32()
	sb.DataStart = dec.GetInt32()
	return sb, nil
}

// InodeBlock gives the absolute block holding inode i.
func (sb Superblock) InodeBlock(i common.Inum) common.Bnum {
	return common.Bnum(sb.InodeStart) + common.Bnum(uint64(i)/common.InodeBlk)
}

// InodeOffset gives the byte offset of inode i within its block.
func (sb Superblock) InodeOffset(i common.Inum) uint64 {
	return (uint64(i) % common.InodeBlk) * common.InodeSize
}
