package jrnl

import (
	"github.com/tchajed/marshal"

	"github.com/vsfs-dev/vsfs/common"
	"github.com/vsfs-dev/vsfs/util"
)

// Record types.
const (
	recData   uint16 = 1
	recCommit uint16 = 2
)

const (
	// HeaderSize is the journal header: magic u32 + bytes-used u32.
	HeaderSize uint64 = 8
	// recHdrSize is the per-record header: type u16 + size u16.
	recHdrSize uint64 = 4

	// DataRecordSize covers header, target block number, and a full
	// block image.
	DataRecordSize   uint64 = recHdrSize + 4 + common.BlockSize
	CommitRecordSize uint64 = recHdrSize
)

type header struct {
	magic     uint32
	bytesUsed uint32
}

func decodeHeader(b []byte) header {
	dec := marshal.NewDec(b[:HeaderSize])
	return header{magic: dec.GetInt32(), bytesUsed: dec.GetInt32()}
}

func encodeHeader(h header) []byte {
	enc := marshal.NewEnc(HeaderSize)
	enc.PutInt32(h.magic)
	enc.PutInt32(h.bytesUsed)
	return enc.Finish()
}

type recHdr struct {
	typ  uint16
	size uint16
}

func decodeRecHdr(b []byte) recHdr {
	dec := marshal.NewDec(b[:recHdrSize])
	return recHdr{typ: util.GetUint16(dec), size: util.GetUint16(dec)}
}

func encodeDataRecord(blkno common.Bnum, blk []byte) []byte {
	enc := marshal.NewEnc(DataRecordSize)
	util.PutUint16(enc, recData)
	util.PutUint16(enc, uint16(DataRecordSize))
	enc.PutInt32(uint32(blkno))
	enc.PutBytes(blk)
	return enc.Finish()
}

func encodeCommitRecord() []byte {
	enc := marshal.NewEnc(CommitRecordSize)
	util.PutUint16(enc, recCommit)
	util.PutUint16(enc, uint16(CommitRecordSize))
	return enc.Finish()
}

// decodeDataTarget pulls the target block number out of a data record.
func decodeDataTarget(b []byte) common.Bnum {
	dec := marshal.NewDec(b[recHdrSize : recHdrSize+4])
	return common.Bnum(dec.GetInt32())
}
