package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestCCMRoundTrip(t *testing.T) {
	key := bdetest.RandomKey(32)
	nonce := bdetest.RandomKey(12)
	plaintext := bdetest.RandomKey(64)

	ct, err := bde.CCMEncryptForTest(key, nonce, plaintext)
	require.NoError(t, err)
	require.Len(t, ct, len(plaintext)+16)

	pt, err := bde.CCMDecryptForTest(key, nonce, ct)
	require.NoError(t, err)
	require.Equal(t, plaintext, pt)
}

func TestCCMDetectsTamperedCiphertext(t *testing.T) {
	key := bdetest.RandomKey(32)
	nonce := bdetest.RandomKey(12)
	ct, err := bde.CCMEncryptForTest(key, nonce, bdetest.RandomKey(32))
	require.NoError(t, err)

	ct[0] ^= 0xff
	_, err = bde.CCMDecryptForTest(key, nonce, ct)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindUnlockFailed, kind)
}

func TestCCMDetectsWrongKey(t *testing.T) {
	nonce := bdetest.RandomKey(12)
	ct, err := bde.CCMEncryptForTest(bdetest.RandomKey(32), nonce, bdetest.RandomKey(32))
	require.NoError(t, err)

	_, err = bde.CCMDecryptForTest(bdetest.RandomKey(32), nonce, ct)
	require.Error(t, err)
}

func TestCCMRejectsShortCiphertext(t *testing.T) {
	_, err := bde.CCMDecryptForTest(bdetest.RandomKey(32), bdetest.RandomKey(12), []byte{1, 2, 3})
	require.Error(t, err)
}
