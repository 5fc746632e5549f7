package fs

import (
	"fmt"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
)

// FsState owns an open image and its cached superblock. Every operation
// takes one of these instead of process-wide globals.
type FsState struct {
	D  disk.Disk
	Sb Superblock
}

// Open reads and caches the superblock from an already-open disk. It
// only verifies the magic; deeper layout validation is fsck's job.
func Open(d disk.Disk) (*FsState, error) {
	blk, err := d.Read(common.SuperBlk)
	if err != nil {
		return nil, fmt.Errorf("read superblock: %w", err)
	}
	sb, err := DecodeSuperblock(blk)
	if err != nil {
		return nil, err
	}
	if sb.Magic != common.FsMagic {
		return nil, fmt.Errorf("bad filesystem magic 0x%08x (want 0x%08x)", sb.Magic, common.FsMagic)
	}
	return &FsState{D: d, Sb: sb}, nil
}

// OpenImage opens the image file at path.
func OpenImage(path string) (*FsState, error) {
	d, err := disk.OpenFileDisk(path)
	if err != nil {
		return nil, err
	}
	st, err := Open(d)
	if err != nil {
		d.Close()
		return nil, err
	}
	return st, nil
}

func (st *FsState) Close() error {
	return st.D.Close()
}
