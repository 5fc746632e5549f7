// Package common holds the static vsfs image layout.
//
// The layout is fixed: a superblock, a 16-block journal, one bitmap block
// each for inodes and data blocks, a two-block inode table, and a 64-block
// data region. Every block index below is derived from this single scheme,
// and the superblock written by mkfs must agree with it field for field.
package common

const (
	BlockSize uint64 = 4096

	FsMagic      uint32 = 0x56534653 // "VSFS"
	JournalMagic uint32 = 0x4A524E4C // "JRNL"

	InodeSize  uint64 = 128
	InodeBlk   uint64 = BlockSize / InodeSize
	DirentSize uint64 = 32
	NameLen    uint64 = 28

	NDirect uint64 = 8

	JournalBlocks uint64 = 16
	InodeBlocks   uint64 = 2
	DataBlocks    uint64 = 64
)

// Absolute block indices.
const (
	SuperBlk       Bnum = 0
	JournalStart   Bnum = 1
	InodeBitmapBlk Bnum = JournalStart + Bnum(JournalBlocks)
	DataBitmapBlk  Bnum = InodeBitmapBlk + 1
	InodeStart     Bnum = DataBitmapBlk + 1
	DataStart      Bnum = InodeStart + Bnum(InodeBlocks)
	TotalBlocks    Bnum = DataStart + Bnum(DataBlocks)
)

const NInode uint64 = InodeBlocks * InodeBlk

// JournalBytes is the capacity of the append-only log region.
const JournalBytes uint64 = JournalBlocks * BlockSize

type Inum uint32
type Bnum = uint64

const RootInum Inum = 0

// Inode types.
const (
	TypeFree uint16 = 0
	TypeFile uint16 = 1
	TypeDir  uint16 = 2
)
