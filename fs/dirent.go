package fs

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tchajed/marshal"

	"github.com/vsfs-dev/vsfs/common"
)

// ErrNameTooLong means a name cannot be NUL-terminated within the fixed
// 28-byte dirent name field.
var ErrNameTooLong = errors.New("file name too long")

// Dirent is a 32-byte directory entry: an inode number and a 28-byte
// NUL-padded name. A zero inode with an empty name marks a free slot.
type Dirent struct {
	Inum uint32
	name [common.NameLen]byte
}

// MkDirent builds an entry, rejecting names that don't fit the fixed
// field with room for the terminating NUL.
func MkDirent(inum common.Inum, name string) (Dirent, error) {
	if len(name) == 0 {
		return Dirent{}, fmt.Errorf("empty file name")
	}
	if uint64(len(name)) >= common.NameLen {
		return Dirent{}, fmt.Errorf("%w: %q exceeds %d bytes", ErrNameTooLong, name, common.NameLen-1)
	}
	var de Dirent
	de.Inum = uint32(inum)
	copy(de.name[:], name)
	return de, nil
}

// IsFree reports whether the slot is unoccupied.
func (de Dirent) IsFree() bool {
	return de.Inum == 0 && de.name[0] == 0
}

// Name returns the entry name up to the first NUL, and whether a NUL
// terminator was present at all.
func (de Dirent) Name() (string, bool) {
	i := bytes.IndexByte(de.name[:], 0)
	if i < 0 {
		return string(de.name[:]), false
	}
	return string(de.name[:i]), true
}

// EncodeDirent serializes de to exactly 32 bytes.
func EncodeDirent(de Dirent) []byte {
	enc := marshal.NewEnc(common.DirentSize)
	enc.PutInt32(de.Inum)
	enc.PutBytes(de.name[:])
	return enc.Finish()
}

// DecodeDirent parses a 32-byte slot.
func DecodeDirent(b []byte) Dirent {
	dec := marshal.NewDec(b)
	var de Dirent
	de.Inum = dec.GetInt32()
	copy(de.name[:], dec.GetBytes(common.NameLen))
	return de
}

// DirentFromBlock decodes slot i of a directory data block.
func DirentFromBlock(blk []byte, i uint64) Dirent {
	off := i * common.DirentSize
	return DecodeDirent(blk[off : off+common.DirentSize])
}

// DirentToBlock serializes de into slot i of a directory data block.
func DirentToBlock(blk []byte, i uint64, de Dirent) {
	off := i * common.DirentSize
	copy(blk[off:off+common.DirentSize], EncodeDirent(de))
}

// DirentsPerBlock is the number of slots a data block holds.
const DirentsPerBlock = common.BlockSize / common.DirentSize
