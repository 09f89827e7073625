package bde_test

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func buildVistaImage(t *testing.T, vmk, fvek []byte, method bde.EncryptionMethod, protectorEntry bdetest.Entry) []byte {
	t.Helper()

	const imageSize = 1 << 20 // 1 MiB
	const fveOffset = 0x8000

	fvekEntry, err := bdetest.FVEKEntry(uint16(method), vmk, fvek)
	require.NoError(t, err)

	blockGUID := bdetest.RandomGUID()
	block := bdetest.Block(blockGUID, 1, imageSize, []bdetest.Entry{
		bdetest.PropertyEntry(uint32(method)),
		fvekEntry,
		protectorEntry,
	})

	image := make([]byte, imageSize)
	copy(image, bdetest.VistaBootSector(512, [3]uint64{fveOffset, 0, 0}))
	copy(image[fveOffset:], block)
	return image
}

func TestVolumeOpenUnlockAndReadAt(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	clearKey := bdetest.RandomKey(32)
	method := bde.EncryptionMethodAESCBC256

	protectorEntry, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	image := buildVistaImage(t, vmk, fvek, method, protectorEntry)

	const dataLBA = 100
	const sectorSize = 512
	dataOffset := int64(dataLBA * sectorSize)

	plaintext := bdetest.RandomKey(sectorSize)
	copy(image[dataOffset:], plaintext)
	require.NoError(t, bde.EncryptSectorForTest(method, fvek, dataLBA, image[dataOffset:dataOffset+sectorSize]))

	src := bde.NewMemorySource(image)
	vol, err := bde.Open(context.Background(), src, bde.OpenOptions{})
	require.NoError(t, err)
	require.True(t, vol.Locked())

	require.NoError(t, vol.Unlock(context.Background(), bde.UnlockOptions{}))
	require.False(t, vol.Locked())

	got, err := vol.EncryptionMethod()
	require.NoError(t, err)
	require.Equal(t, method, got)

	buf := make([]byte, sectorSize)
	n, err := vol.ReadAt(buf, dataOffset)
	require.NoError(t, err)
	require.Equal(t, sectorSize, n)
	require.Equal(t, plaintext, buf)
}

func TestVolumeReadAtFailsWhenLocked(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	clearKey := bdetest.RandomKey(32)
	protectorEntry, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	image := buildVistaImage(t, vmk, fvek, bde.EncryptionMethodAESCBC256, protectorEntry)
	vol, err := bde.Open(context.Background(), bde.NewMemorySource(image), bde.OpenOptions{})
	require.NoError(t, err)

	_, err = vol.ReadAt(make([]byte, 512), 0)
	require.Error(t, err)
}

func TestVolumeUnlockFailsWithoutMatchingCredential(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	recoveryKey := bdetest.RandomKey(16)
	salt := bdetest.RandomKey(16)

	seed := sha256.Sum256(recoveryKey)
	stretched, err := bde.StretchKey(seed[:], salt, nil)
	require.NoError(t, err)

	protectorEntry, err := bdetest.RecoveryPasswordProtector(bdetest.RandomGUID(), salt, stretched, vmk)
	require.NoError(t, err)

	image := buildVistaImage(t, vmk, fvek, bde.EncryptionMethodAESCBC256, protectorEntry)
	vol, err := bde.Open(context.Background(), bde.NewMemorySource(image), bde.OpenOptions{})
	require.NoError(t, err)

	err = vol.Unlock(context.Background(), bde.UnlockOptions{})
	require.Error(t, err)
}

func TestVolumeProtectorsListsAllProtectors(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	clearKey := bdetest.RandomKey(32)
	protectorEntry, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	image := buildVistaImage(t, vmk, fvek, bde.EncryptionMethodAESCBC256, protectorEntry)
	vol, err := bde.Open(context.Background(), bde.NewMemorySource(image), bde.OpenOptions{})
	require.NoError(t, err)

	protectors := vol.Protectors()
	require.Len(t, protectors, 1)
	require.Equal(t, bde.ProtectionTypeClearKey, protectors[0].Type)
}
