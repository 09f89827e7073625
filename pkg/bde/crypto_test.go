package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/stretchr/testify/require"
)

func TestStretchKeyDeterministic(t *testing.T) {
	input := make([]byte, 32)
	salt := make([]byte, 16)
	for i := range input {
		input[i] = byte(i)
	}
	for i := range salt {
		salt[i] = byte(i * 3)
	}

	out1, err := bde.StretchKey(input, salt, nil)
	require.NoError(t, err)
	out2, err := bde.StretchKey(input, salt, nil)
	require.NoError(t, err)

	require.Equal(t, out1, out2)
	require.Len(t, out1, 32)
}

func TestStretchKeyDifferentSaltDifferentOutput(t *testing.T) {
	input := make([]byte, 32)
	saltA := make([]byte, 16)
	saltB := make([]byte, 16)
	saltB[0] = 1

	outA, err := bde.StretchKey(input, saltA, nil)
	require.NoError(t, err)
	outB, err := bde.StretchKey(input, saltB, nil)
	require.NoError(t, err)

	require.NotEqual(t, outA, outB)
}

func TestStretchKeyRejectsWrongLengths(t *testing.T) {
	_, err := bde.StretchKey(make([]byte, 10), make([]byte, 16), nil)
	require.Error(t, err)

	_, err = bde.StretchKey(make([]byte, 32), make([]byte, 10), nil)
	require.Error(t, err)
}

func TestStretchKeyAbort(t *testing.T) {
	abort := make(chan struct{})
	close(abort)

	_, err := bde.StretchKey(make([]byte, 32), make([]byte, 16), abort)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindAbortRequested, kind)
}
