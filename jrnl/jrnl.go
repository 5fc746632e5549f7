// Package jrnl manages the write-ahead journal of a vsfs image.
//
// The journal is a fixed 16-block region holding an 8-byte header (magic
// plus a bytes-used counter) followed by an append-only log of records:
// data records carrying a full block image destined for some target block,
// and commit records marking the end of one atomic group. The log never
// wraps; once the region is full, appends are refused until the log is
// replayed and cleared.
//
// A transaction is durable exactly when its commit record and the updated
// bytes-used counter are on disk. Replay applies only committed groups,
// and applies full block images, so it is idempotent.
package jrnl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/disk"
	"github.com/vsfs-dev/vsfs/fs"
	"github.com/vsfs-dev/vsfs/util"
)

// ErrJournalFull means the log has no room for the transaction; nothing
// was written. The caller should replay the journal and retry.
var ErrJournalFull = errors.New("journal full")

// Journal owns the log region of one image.
type Journal struct {
	d     disk.Disk
	start common.Bnum
	nblks uint64
	// total image blocks; replay refuses to write outside this bound
	total uint64
}

func New(st *fs.FsState) *Journal {
	return &Journal{
		d:     st.D,
		start: common.Bnum(st.Sb.JournalBlock),
		nblks: common.JournalBlocks,
		total: uint64(st.Sb.TotalBlocks),
	}
}

func (j *Journal) capacity() uint64 {
	return j.nblks * common.BlockSize
}

func (j *Journal) readRegion() ([]byte, error) {
	buf := make([]byte, j.capacity())
	for i := uint64(0); i < j.nblks; i++ {
		if err := j.d.ReadTo(j.start+i, buf[i*common.BlockSize:(i+1)*common.BlockSize]); err != nil {
			return nil, fmt.Errorf("read journal block %d: %w", j.start+i, err)
		}
	}
	return buf, nil
}

func (j *Journal) writeBlockRange(buf []byte, first uint64, last uint64) error {
	for i := first; i <= last; i++ {
		if err := j.d.Write(j.start+i, buf[i*common.BlockSize:(i+1)*common.BlockSize]); err != nil {
			return fmt.Errorf("write journal block %d: %w", j.start+i, err)
		}
	}
	return nil
}

// Append logs one transaction: each staged block as a data record, then
// a commit record, then the advanced bytes-used counter. The counter is
// flushed only after the records themselves are durable, so a crash
// anywhere in between leaves the log logically unchanged.
func (j *Journal) Append(tx *Txn) error {
	if tx.NBlocks() == 0 {
		return nil
	}
	buf, err := j.readRegion()
	if err != nil {
		return err
	}

	// A journal fresh out of mkfs is all zeroes; initialize it lazily.
	hdr := decodeHeader(buf)
	used := uint64(hdr.bytesUsed)
	if hdr.magic != common.JournalMagic || used < HeaderSize {
		used = HeaderSize
	}

	need := tx.LogBytes()
	if used+need > j.capacity() {
		return fmt.Errorf("%w: %d bytes used, %d needed, %d capacity",
			ErrJournalFull, used, need, j.capacity())
	}

	pos := used
	for _, upd := range tx.Updates() {
		copy(buf[pos:pos+DataRecordSize], encodeDataRecord(upd.Blkno, upd.Block))
		slog.Debug("journal: logged block", "target", upd.Blkno, "pos", pos)
		pos += DataRecordSize
	}
	copy(buf[pos:pos+CommitRecordSize], encodeCommitRecord())
	pos += CommitRecordSize

	// Phase one: the record bytes, with the old header still in place.
	firstBlk := used / common.BlockSize
	lastBlk := (pos - 1) / common.BlockSize
	if firstBlk == 0 {
		// Don't clobber the on-disk header before the records land.
		copy(buf[:HeaderSize], encodeHeader(hdr))
	}
	if err := j.writeBlockRange(buf, firstBlk, lastBlk); err != nil {
		return err
	}
	if err := j.d.Barrier(); err != nil {
		return err
	}

	// Phase two: advance the counter, making the group durable.
	copy(buf[:HeaderSize], encodeHeader(header{
		magic:     common.JournalMagic,
		bytesUsed: uint32(pos),
	}))
	if err := j.writeBlockRange(buf, 0, 0); err != nil {
		return err
	}
	if err := j.d.Barrier(); err != nil {
		return err
	}
	slog.Debug("journal: committed", "blocks", tx.NBlocks(), "bytes_used", pos)
	return nil
}

// ReplayAndClear applies every committed transaction in the log to the
// image and resets the log to empty. A journal with a foreign magic or
// no logged bytes is left untouched. A record that would run past the
// used-byte boundary ends the scan; everything after it belongs to a
// transaction that never committed and is discarded with the rest of
// the log.
func (j *Journal) ReplayAndClear() error {
	buf, err := j.readRegion()
	if err != nil {
		return err
	}
	hdr := decodeHeader(buf)
	if hdr.magic != common.JournalMagic {
		return nil
	}
	used := util.Min(uint64(hdr.bytesUsed), j.capacity())
	if used <= HeaderSize {
		return nil
	}

	var order []common.Bnum
	pending := make(map[common.Bnum]disk.Block)

	pos := HeaderSize
	for pos+recHdrSize <= used {
		rh := decodeRecHdr(buf[pos:])
		rsize := uint64(rh.size)
		if rsize < recHdrSize || pos+rsize > used {
			// Malformed or truncated tail: never committed, discard.
			slog.Debug("journal: scan stopped at incomplete record", "pos", pos)
			break
		}
		switch rh.typ {
		case recData:
			if rsize != DataRecordSize {
				slog.Debug("journal: skipping data record with bad size",
					"pos", pos, "size", rsize)
				break
			}
			target := decodeDataTarget(buf[pos:])
			if _, ok := pending[target]; !ok {
				order = append(order, target)
			}
			pending[target] = util.CloneByteSlice(buf[pos+recHdrSize+4 : pos+DataRecordSize])
		case recCommit:
			for _, bn := range order {
				if bn >= j.total {
					slog.Debug("journal: dropping out-of-range target", "target", bn)
					continue
				}
				if err := j.d.Write(bn, pending[bn]); err != nil {
					return fmt.Errorf("install block %d: %w", bn, err)
				}
			}
			slog.Debug("journal: installed transaction", "blocks", len(order))
			order = nil
			pending = make(map[common.Bnum]disk.Block)
		}
		pos += rsize
	}

	// Reset to an empty log.
	for i := range buf {
		buf[i] = 0
	}
	copy(buf[:HeaderSize], encodeHeader(header{
		magic:     common.JournalMagic,
		bytesUsed: uint32(HeaderSize),
	}))
	if err := j.writeBlockRange(buf, 0, j.nblks-1); err != nil {
		return err
	}
	return j.d.Barrier()
}

// Pending reports whether the log holds committed-but-uninstalled bytes.
func (j *Journal) Pending() (bool, error) {
	blk, err := j.d.Read(j.start)
	if err != nil {
		return false, fmt.Errorf("read journal header: %w", err)
	}
	return PendingHeader(blk), nil
}

// PendingHeader reports whether a journal header block describes a
// non-empty log.
func PendingHeader(blk []byte) bool {
	hdr := decodeHeader(blk)
	return hdr.magic == common.JournalMagic && uint64(hdr.bytesUsed) > HeaderSize
}
