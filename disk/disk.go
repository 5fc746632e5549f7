// Package disk provides fixed-size block access to a random-access store.
package disk

import "fmt"

// Block is a 4096-byte buffer
type Block = []byte

const BlockSize uint64 = 4096

// Disk provides access to a logical block-based disk
type Disk interface {
	// Read reads a disk block by address
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably
	// on disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

func checkAddr(a uint64, numBlocks uint64) error {
	if a >= numBlocks {
		return fmt.Errorf("block %d out of range (disk has %d blocks)", a, numBlocks)
	}
	return nil
}

func checkBlock(v Block) error {
	if uint64(len(v)) != BlockSize {
		return fmt.Errorf("buffer is not block-sized (%d bytes)", len(v))
	}
	return nil
}
