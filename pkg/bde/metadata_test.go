package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestParseBlockBasics(t *testing.T) {
	guid := bdetest.RandomGUID()
	raw := bdetest.Block(guid, 7, 100*1<<20, []bdetest.Entry{
		bdetest.PropertyEntry(0x8002),
	})
	src := bde.NewMemorySource(raw)

	block, err := bde.ParseBlock(src, 0)
	require.NoError(t, err)
	require.EqualValues(t, 7, block.SequenceNumber)
	require.EqualValues(t, 100*1<<20, block.EncryptedVolumeSize)
	require.EqualValues(t, guid, block.VolumeGUID)
}

func TestParseBlockRejectsBadMagic(t *testing.T) {
	guid := bdetest.RandomGUID()
	raw := bdetest.Block(guid, 1, 1<<20, nil)
	raw[0] = 'X' // corrupt the magic
	src := bde.NewMemorySource(raw)

	_, err := bde.ParseBlock(src, 0)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindInvalidData, kind)
}

func TestParseBestBlockPicksHighestSequence(t *testing.T) {
	guid := bdetest.RandomGUID()
	blockLow := bdetest.Block(guid, 3, 1<<20, nil)
	blockHigh := bdetest.Block(guid, 9, 1<<20, nil)
	blockMid := bdetest.Block(guid, 5, 1<<20, nil)

	image := make([]byte, 0x20000)
	copy(image[0x4000:], blockLow)
	copy(image[0x8000:], blockHigh)
	copy(image[0xc000:], blockMid)

	src := bde.NewMemorySource(image)
	header := &bde.Header{FVEOffsets: [3]uint64{0x4000, 0x8000, 0xc000}}

	best, err := bde.ParseBestBlock(src, header)
	require.NoError(t, err)
	require.EqualValues(t, 9, best.SequenceNumber)
}

func TestParseBestBlockToleratesTwoCorruptCopies(t *testing.T) {
	guid := bdetest.RandomGUID()
	good := bdetest.Block(guid, 4, 1<<20, nil)

	image := make([]byte, 0x20000)
	copy(image[0x4000:], good)
	// 0x8000 and 0xc000 are left zero-filled: bad magic, no signature.

	src := bde.NewMemorySource(image)
	header := &bde.Header{FVEOffsets: [3]uint64{0x4000, 0x8000, 0xc000}}

	best, err := bde.ParseBestBlock(src, header)
	require.NoError(t, err)
	require.EqualValues(t, 4, best.SequenceNumber)
}

func TestParseBestBlockFailsWhenAllInvalid(t *testing.T) {
	image := make([]byte, 0x20000)
	src := bde.NewMemorySource(image)
	header := &bde.Header{FVEOffsets: [3]uint64{0x4000, 0x8000, 0xc000}}

	_, err := bde.ParseBestBlock(src, header)
	require.Error(t, err)
}

func TestBlockAccessors(t *testing.T) {
	guid := bdetest.RandomGUID()
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	fvekEntry, err := bdetest.FVEKEntry(0x8002, vmk, fvek)
	require.NoError(t, err)

	clearKey := bdetest.RandomKey(32)
	protectorGUID := bdetest.RandomGUID()
	protector, err := bdetest.ClearKeyProtector(protectorGUID, clearKey, vmk)
	require.NoError(t, err)

	vhb := bdetest.VolumeHeaderBlockEntry(0x10000, 0x4000)

	raw := bdetest.Block(guid, 1, 1<<20, []bdetest.Entry{
		bdetest.PropertyEntry(0x8002),
		fvekEntry,
		protector,
		vhb,
	})
	block, err := bde.ParseBlock(bde.NewMemorySource(raw), 0)
	require.NoError(t, err)

	_, ok := block.FVEKEntry()
	require.True(t, ok)
	require.Len(t, block.ProtectorEntries(), 1)
	_, ok = block.VolumeHeaderBlockEntry()
	require.True(t, ok)
}
