package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestEntryTypeAndValueTypeStringers(t *testing.T) {
	require.Equal(t, "volume-master-key", bde.EntryTypeVolumeMasterKey.String())
	require.Equal(t, "unknown", bde.EntryType(0xffff).String())
	require.Equal(t, "aes-ccm-encrypted", bde.ValueTypeAESCCMEncrypted.String())
	require.Equal(t, "unknown", bde.ValueType(0xffff).String())
}

// TestEntryParsingViaBlock exercises the entry decoder indirectly through
// ParseBlock, since parseEntries itself is an implementation detail not
// exported outside the package.
func TestEntryParsingViaBlock(t *testing.T) {
	guid := bdetest.RandomGUID()
	raw := bdetest.Block(guid, 1, 1<<30, []bdetest.Entry{
		bdetest.PropertyEntry(0x8002),
		{Type: 0x0007, Value: 0x0002, Data: []byte("hi")},
	})
	src := bde.NewMemorySource(raw)

	block, err := bde.ParseBlock(src, 0)
	require.NoError(t, err)
	require.Len(t, block.Entries, 2)
	require.Equal(t, bde.EntryTypeProperty, block.Entries[0].Type)
	require.Equal(t, bde.EntryTypeDescription, block.Entries[1].Type)
	require.Equal(t, []byte("hi"), block.Entries[1].Data)
}

func TestEntryParsingRejectsTruncatedTrailer(t *testing.T) {
	guid := bdetest.RandomGUID()
	raw := bdetest.Block(guid, 1, 1<<30, []bdetest.Entry{
		bdetest.PropertyEntry(0x8002),
	})
	// Truncate the trailing entry's payload without fixing up the
	// declared block size, so the declared size extends past the end of
	// the source and ParseBlock rejects the block.
	src := bde.NewMemorySource(raw[:len(raw)-1])

	_, err := bde.ParseBlock(src, 0)
	require.Error(t, err)
}
