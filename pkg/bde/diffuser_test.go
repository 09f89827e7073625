package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestDiffuserRoundTrip(t *testing.T) {
	sector := bdetest.RandomKey(512)
	original := append([]byte(nil), sector...)

	require.NoError(t, bde.DiffuserEncryptForTest(sector))
	require.NotEqual(t, original, sector)

	require.NoError(t, bde.DiffuserDecryptForTest(sector))
	require.Equal(t, original, sector)
}

func TestDiffuserRejectsNonWordAlignedInput(t *testing.T) {
	sector := make([]byte, 511)
	require.Error(t, bde.DiffuserEncryptForTest(sector))
}

// TestDiffuserPassDecryptMatchesLiteralFormula checks diffuser B's
// single-round recurrence from spec.md §4.G,
// w[i] -= w[i+2] ⊕ rotl(w[i+5], R_b[i mod 4]), against a fixture worked
// out by hand on paper rather than round-tripped through the package's
// own diffuserEncrypt. With input [0,0,0,0,0,0,0,1] every rotation the
// formula touches is either rotl(0, r) or rotl(x, 0), both of which
// collapse to the identity, leaving the whole round as a chain of
// 0/1/0xFFFFFFFF XORs and subtractions that can be verified without a
// computer: starting from w[7]=1 and walking i=7..0,
//
//	i=7: w7 -= w1^rotl(w4,25) = 1-0 = 1
//	i=6: w6 -= w0^rotl(w3,0)  = 0-0 = 0
//	i=5: w5 -= w7^rotl(w2,10) = 0-1 = 0xFFFFFFFF
//	i=4: w4 -= w6^rotl(w1,0)  = 0-0 = 0
//	i=3: w3 -= w5^rotl(w0,25) = 0-0xFFFFFFFF = 1
//	i=2: w2 -= w4^rotl(w7,0)  = 0-1 = 0xFFFFFFFF
//	i=1: w1 -= w3^rotl(w6,10) = 0-1 = 0xFFFFFFFF
//	i=0: w0 -= w2^rotl(w5,0)  = 0-0 = 0
func TestDiffuserPassDecryptMatchesLiteralFormula(t *testing.T) {
	words := []uint32{0, 0, 0, 0, 0, 0, 0, 1}
	want := []uint32{0, 0xFFFFFFFF, 0xFFFFFFFF, 1, 0, 0xFFFFFFFF, 0, 1}

	bde.DiffuserPassDecryptForTest(words, bde.DiffuserBRotationForTest, 1)
	require.Equal(t, want, words)

	// The ascending/addition pass is the hand-derivable inverse of the
	// above: running it over the decrypted output must recover the
	// original input exactly, independent of diffuserEncrypt.
	bde.DiffuserPassEncryptForTest(words, bde.DiffuserBRotationForTest, 1)
	require.Equal(t, []uint32{0, 0, 0, 0, 0, 0, 0, 1}, words)
}
