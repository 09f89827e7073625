package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestParseBEKExternalKey(t *testing.T) {
	guid := bdetest.RandomGUID()
	externalKey := bdetest.RandomKey(32)

	startupPayload := make([]byte, 28) // protectorHeaderSize
	startupPayload = append(startupPayload, bdetest.Encode([]bdetest.Entry{
		{Type: 0x0000, Value: 0x0009, Data: externalKey},
	})...)

	raw := bdetest.Block(guid, 1, 0, []bdetest.Entry{
		{Type: 0x0006, Value: 0x0001, Data: startupPayload},
	})

	bek, err := bde.ParseBEK(raw)
	require.NoError(t, err)
	require.EqualValues(t, guid, bek.VolumeGUID)

	key, err := bek.ExternalKey()
	require.NoError(t, err)
	require.Equal(t, externalKey, key)
}

func TestParseBEKMissingStartupKey(t *testing.T) {
	guid := bdetest.RandomGUID()
	raw := bdetest.Block(guid, 1, 0, nil)

	bek, err := bde.ParseBEK(raw)
	require.NoError(t, err)

	_, err = bek.ExternalKey()
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindValueMissing, kind)
}

func TestParseBEKInvalidContainer(t *testing.T) {
	_, err := bde.ParseBEK(make([]byte, 8))
	require.Error(t, err)
}
