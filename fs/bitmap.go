package fs

// Bitmap is a bitmap block, one bit per allocatable unit, bit i at
// byte i/8 bit i%8.
type Bitmap []byte

func (bm Bitmap) Test(i uint64) bool {
	return bm[i/8]&(1<<(i%8)) != 0
}

func (bm Bitmap) Set(i uint64) {
	bm[i/8] |= 1 << (i % 8)
}

func (bm Bitmap) Clear(i uint64) {
	bm[i/8] &^= 1 << (i % 8)
}

// FindFree scans for the lowest clear bit below limit.
func (bm Bitmap) FindFree(limit uint64) (uint64, bool) {
	for i := uint64(0); i < limit; i++ {
		if !bm.Test(i) {
			return i, true
		}
	}
	return 0, false
}
