package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderVista(t *testing.T) {
	sector := bdetest.VistaBootSector(512, [3]uint64{0x4000, 0x8000, 0xc000})
	src := bde.NewMemorySource(append(sector, make([]byte, 0x10000)...))

	h, err := bde.ParseHeader(src)
	require.NoError(t, err)
	require.Equal(t, bde.VariantVista, h.Variant)
	require.EqualValues(t, 512, h.BytesPerSector)
	require.Equal(t, [3]uint64{0x4000, 0x8000, 0xc000}, h.FVEOffsets)
}

func TestParseHeaderRejectsUnknownSignature(t *testing.T) {
	sector := make([]byte, 512)
	copy(sector[3:11], []byte("GARBAGE!"))
	src := bde.NewMemorySource(sector)

	_, err := bde.ParseHeader(src)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindSignatureMismatch, kind)
}

func TestParseHeaderTruncatedSource(t *testing.T) {
	src := bde.NewMemorySource(make([]byte, 10))
	_, err := bde.ParseHeader(src)
	require.Error(t, err)
}
