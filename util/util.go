package util

import "github.com/tchajed/marshal"

func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	}
	return m
}

func CloneByteSlice(s []byte) []byte {
	s2 := make([]byte, len(s))
	copy(s2, s)
	return s2
}

// marshal has no 16-bit primitives; the on-disk record headers use
// 2-byte fields, so put/get them as little-endian byte pairs. Enc and
// Dec are value types whose offset lives behind a pointer, matching the
// library's own method signatures.

func PutUint16(enc marshal.Enc, v uint16) {
	enc.PutBytes([]byte{byte(v), byte(v >> 8)})
}

func GetUint16(dec marshal.Dec) uint16 {
	b := dec.GetBytes(2)
	return uint16(b[0]) | uint16(b[1])<<8
}
