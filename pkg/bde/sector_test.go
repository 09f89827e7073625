package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestSectorCodecRoundTripAllMethods(t *testing.T) {
	methods := []struct {
		name   string
		method bde.EncryptionMethod
		fvek   int
	}{
		{"aes-cbc-128", bde.EncryptionMethodAESCBC128, 16},
		{"aes-cbc-256", bde.EncryptionMethodAESCBC256, 32},
		{"aes-cbc-128-diffuser", bde.EncryptionMethodAESCBC128Diffuser, 32},
		{"aes-cbc-256-diffuser", bde.EncryptionMethodAESCBC256Diffuser, 64},
		{"aes-xts-128", bde.EncryptionMethodAESXTS128, 32},
		{"aes-xts-256", bde.EncryptionMethodAESXTS256, 64},
	}

	for _, m := range methods {
		t.Run(m.name, func(t *testing.T) {
			fvek := bdetest.RandomKey(m.fvek)
			sector := bdetest.RandomKey(512)
			original := append([]byte(nil), sector...)

			require.NoError(t, bde.EncryptSectorForTest(m.method, fvek, 42, sector))
			require.NotEqual(t, original, sector)

			require.NoError(t, bde.DecryptSectorForTest(m.method, fvek, 42, sector))
			require.Equal(t, original, sector)
		})
	}
}

func TestSectorCodecDifferentLBAsDifferentCiphertext(t *testing.T) {
	fvek := bdetest.RandomKey(32)
	sectorA := bdetest.RandomKey(512)
	sectorB := append([]byte(nil), sectorA...)

	require.NoError(t, bde.EncryptSectorForTest(bde.EncryptionMethodAESCBC256, fvek, 1, sectorA))
	require.NoError(t, bde.EncryptSectorForTest(bde.EncryptionMethodAESCBC256, fvek, 2, sectorB))

	require.NotEqual(t, sectorA, sectorB)
}

func TestSectorCodecRejectsWrongFVEKLength(t *testing.T) {
	sector := bdetest.RandomKey(512)
	err := bde.EncryptSectorForTest(bde.EncryptionMethodAESCBC256, bdetest.RandomKey(10), 0, sector)
	require.Error(t, err)
}

func TestEncryptionMethodStringer(t *testing.T) {
	require.Equal(t, "aes-xts-256", bde.EncryptionMethodAESXTS256.String())
	require.Equal(t, "unknown", bde.EncryptionMethod(0x1234).String())
}
