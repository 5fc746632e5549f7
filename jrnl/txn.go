package jrnl

import (
	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
	"github.com/vsfs-dev/vsfs/util"
)

// Update is one pending whole-block write.
type Update struct {
	Blkno common.Bnum
	Block disk.Block
}

// Txn collects the block images of one atomic mutation before they are
// appended to the log. Writes are keyed by target block with
// last-write-wins semantics, so a block staged twice is logged exactly
// once, with its final contents, at its first position.
type Txn struct {
	order  []common.Bnum
	blocks map[common.Bnum]disk.Block
}

func Begin() *Txn {
	return &Txn{blocks: make(map[common.Bnum]disk.Block)}
}

// Write stages a full block image for blkno. The block is copied.
func (tx *Txn) Write(blkno common.Bnum, blk disk.Block) {
	if _, ok := tx.blocks[blkno]; !ok {
		tx.order = append(tx.order, blkno)
	}
	tx.blocks[blkno] = util.CloneByteSlice(blk)
}

// Updates returns the staged writes in staging order.
func (tx *Txn) Updates() []Update {
	upds := make([]Update, 0, len(tx.order))
	for _, bn := range tx.order {
		upds = append(upds, Update{Blkno: bn, Block: tx.blocks[bn]})
	}
	return upds
}

// NBlocks is the number of distinct blocks staged.
func (tx *Txn) NBlocks() uint64 {
	return uint64(len(tx.order))
}

// LogBytes is the room tx needs in the journal, commit record included.
func (tx *Txn) LogBytes() uint64 {
	return tx.NBlocks()*DataRecordSize + CommitRecordSize
}
