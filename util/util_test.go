package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tchajed/marshal"

	"github.com/vsfs-dev/vsfs/util"
)

func TestRoundUp(t *testing.T) {
	assert.Equal(t, uint64(0), util.RoundUp(0, 4096))
	assert.Equal(t, uint64(1), util.RoundUp(1, 4096))
	assert.Equal(t, uint64(1), util.RoundUp(4096, 4096))
	assert.Equal(t, uint64(2), util.RoundUp(4097, 4096))
}

func TestUint16RoundTrip(t *testing.T) {
	enc := marshal.NewEnc(4)
	util.PutUint16(enc, 0x1008)
	util.PutUint16(enc, 2)
	b := enc.Finish()
	assert.Equal(t, []byte{0x08, 0x10, 2, 0}, b)

	dec := marshal.NewDec(b)
	assert.Equal(t, uint16(0x1008), util.GetUint16(dec))
	assert.Equal(t, uint16(2), util.GetUint16(dec))
}
