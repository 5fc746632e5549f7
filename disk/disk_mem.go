package disk

var _ Disk = (*MemDisk)(nil)

// MemDisk keeps all blocks in memory. Used by tests.
type MemDisk struct {
	blocks [][BlockSize]byte
}

func NewMemDisk(numBlocks uint64) *MemDisk {
	return &MemDisk{blocks: make([][BlockSize]byte, numBlocks)}
}

func (d *MemDisk) ReadTo(a uint64, buf Block) error {
	if err := checkBlock(buf); err != nil {
		return err
	}
	if err := checkAddr(a, uint64(len(d.blocks))); err != nil {
		return err
	}
	copy(buf, d.blocks[a][:])
	return nil
}

func (d *MemDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *MemDisk) Write(a uint64, v Block) error {
	if err := checkBlock(v); err != nil {
		return err
	}
	if err := checkAddr(a, uint64(len(d.blocks))); err != nil {
		return err
	}
	copy(d.blocks[a][:], v)
	return nil
}

func (d *MemDisk) Size() (uint64, error) {
	return uint64(len(d.blocks)), nil
}

func (d *MemDisk) Barrier() error { return nil }

func (d *MemDisk) Close() error { return nil }
