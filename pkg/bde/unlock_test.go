package bde_test

import (
	"crypto/sha256"
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func buildUnlockableBlock(t *testing.T, vmk, fvek []byte, method bde.EncryptionMethod, protectorEntry bdetest.Entry) *bde.Block {
	t.Helper()

	fvekEntry, err := bdetest.FVEKEntry(uint16(method), vmk, fvek)
	require.NoError(t, err)

	raw := bdetest.Block(bdetest.RandomGUID(), 1, 1<<30, []bdetest.Entry{
		bdetest.PropertyEntry(uint32(method)),
		fvekEntry,
		protectorEntry,
	})
	block, err := bde.ParseBlock(bde.NewMemorySource(raw), 0)
	require.NoError(t, err)
	return block
}

func TestUnlockVMKWithClearKey(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	clearKey := bdetest.RandomKey(32)
	protectorEntry, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	block := buildUnlockableBlock(t, vmk, bdetest.RandomKey(32), bde.EncryptionMethodAESCBC256, protectorEntry)

	got, protector, err := bde.UnlockVMK(block, bde.UnlockOptions{}, nil)
	require.NoError(t, err)
	require.Equal(t, vmk, got)
	require.Equal(t, bde.ProtectionTypeClearKey, protector.Type)
}

func TestUnlockVMKWithRecoveryPassword(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	recoveryKey := bdetest.RandomKey(16)
	formatted, err := bde.FormatRecoveryPassword(recoveryKey)
	require.NoError(t, err)

	salt := bdetest.RandomKey(16)
	seed := sha256.Sum256(recoveryKey)
	stretched, err := bde.StretchKey(seed[:], salt, nil)
	require.NoError(t, err)

	protectorEntry, err := bdetest.RecoveryPasswordProtector(bdetest.RandomGUID(), salt, stretched, vmk)
	require.NoError(t, err)

	block := buildUnlockableBlock(t, vmk, bdetest.RandomKey(32), bde.EncryptionMethodAESCBC256, protectorEntry)

	got, protector, err := bde.UnlockVMK(block, bde.UnlockOptions{RecoveryPassword: formatted}, nil)
	require.NoError(t, err)
	require.Equal(t, vmk, got)
	require.Equal(t, bde.ProtectionTypeRecoveryPassword, protector.Type)
}

func TestUnlockVMKFailsWithWrongCredential(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	recoveryKey := bdetest.RandomKey(16)
	salt := bdetest.RandomKey(16)
	seed := sha256.Sum256(recoveryKey)
	stretched, err := bde.StretchKey(seed[:], salt, nil)
	require.NoError(t, err)

	protectorEntry, err := bdetest.RecoveryPasswordProtector(bdetest.RandomGUID(), salt, stretched, vmk)
	require.NoError(t, err)

	block := buildUnlockableBlock(t, vmk, bdetest.RandomKey(32), bde.EncryptionMethodAESCBC256, protectorEntry)

	wrongRecoveryKey := bdetest.RandomKey(16)
	wrongFormatted, err := bde.FormatRecoveryPassword(wrongRecoveryKey)
	require.NoError(t, err)

	_, _, err = bde.UnlockVMK(block, bde.UnlockOptions{RecoveryPassword: wrongFormatted}, nil)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindUnlockFailed, kind)
}

func TestUnlockFVEKEndToEnd(t *testing.T) {
	vmk := bdetest.RandomKey(32)
	fvek := bdetest.RandomKey(32)
	clearKey := bdetest.RandomKey(32)
	protectorEntry, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	block := buildUnlockableBlock(t, vmk, fvek, bde.EncryptionMethodAESCBC256, protectorEntry)

	gotVMK, _, err := bde.UnlockVMK(block, bde.UnlockOptions{}, nil)
	require.NoError(t, err)

	gotFVEK, method, err := bde.UnlockFVEK(block, gotVMK)
	require.NoError(t, err)
	require.Equal(t, fvek, gotFVEK)
	require.Equal(t, bde.EncryptionMethodAESCBC256, method)
}
