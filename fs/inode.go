package fs

import (
	"github.com/tchajed/marshal"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/util"
)

// Inode is a 128-byte inode-table slot. Direct pointers are absolute
// block numbers; 0 marks an unused pointer.
type Inode struct {
	Type  uint16
	Links uint16
	Size  uint32

	Direct [common.NDirect]uint32

	Ctime uint32
	Mtime uint32
}

const inodeFieldBytes = 2 + 2 + 4 + 8*4 + 4 + 4

// EncodeInode serializes ino to exactly 128 bytes.
func EncodeInode(ino Inode) []byte {
	enc := marshal.NewEnc(common.InodeSize)
	util.PutUint16(enc, ino.Type)
	util.PutUint16(enc, ino.Links)
	enc.PutInt32(ino.Size)
	for _, b := range ino.Direct {
		enc.PutInt32(b)
	}
	enc.PutInt32(ino.Ctime)
	enc.PutInt32(ino.Mtime)
	enc.PutBytes(make([]byte, common.InodeSize-inodeFieldBytes))
	return enc.Finish()
}

// DecodeInode parses a 128-byte inode slot.
func DecodeInode(b []byte) Inode {
	dec := marshal.NewDec(b)
	var ino Inode
	ino.Type = util.GetUint16(dec)
	ino.Links = util.GetUint16(dec)
	ino.Size = dec.GetInt32()
	for i := range ino.Direct {
		ino.Direct[i] = dec.GetInt32()
	}
	ino.Ctime = dec.GetInt32()
	ino.Mtime = dec.GetInt32()
	return ino
}

// InodeFromBlock decodes the slot at byte offset off of an inode-table
// block.
func InodeFromBlock(blk []byte, off uint64) Inode {
	return DecodeInode(blk[off : off+common.InodeSize])
}

// InodeToBlock serializes ino into the slot at byte offset off.
func InodeToBlock(blk []byte, off uint64, ino Inode) {
	copy(blk[off:off+common.InodeSize], EncodeInode(ino))
}

// NBlocks is the number of data blocks ino's size requires.
func (ino Inode) NBlocks() uint64 {
	return util.RoundUp(uint64(ino.Size), common.BlockSize)
}
