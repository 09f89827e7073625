package bde_test

import (
	"strings"
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestRecoveryPasswordRoundTrip(t *testing.T) {
	key := bdetest.RandomKey(16)

	formatted, err := bde.FormatRecoveryPassword(key)
	require.NoError(t, err)
	require.Len(t, strings.Split(formatted, "-"), 8)

	parsed, err := bde.ParseRecoveryPassword(formatted)
	require.NoError(t, err)
	require.Equal(t, key, parsed)
}

func TestRecoveryPasswordAcceptsBareDigits(t *testing.T) {
	key := bdetest.RandomKey(16)
	formatted, err := bde.FormatRecoveryPassword(key)
	require.NoError(t, err)

	bare := strings.ReplaceAll(formatted, "-", "")
	parsed, err := bde.ParseRecoveryPassword(bare)
	require.NoError(t, err)
	require.Equal(t, key, parsed)
}

func TestRecoveryPasswordRejectsBadCheckDigit(t *testing.T) {
	key := make([]byte, 16)
	formatted, err := bde.FormatRecoveryPassword(key)
	require.NoError(t, err)

	groups := strings.Split(formatted, "-")
	last := groups[0][5]
	corrupted := byte('0')
	if last == corrupted {
		corrupted = '1'
	}
	groups[0] = groups[0][:5] + string(corrupted)
	corruptedPassword := strings.Join(groups, "-")

	_, err = bde.ParseRecoveryPassword(corruptedPassword)
	require.Error(t, err)
	kind, ok := bde.KindOf(err)
	require.True(t, ok)
	require.Equal(t, bde.KindInvalidArgument, kind)
}

func TestRecoveryPasswordRejectsWrongShape(t *testing.T) {
	_, err := bde.ParseRecoveryPassword("123-456")
	require.Error(t, err)

	_, err = bde.ParseRecoveryPassword("1234567890123456789012345678901234567890123456") // 46 digits, not 48
	require.Error(t, err)
}

func TestFormatRecoveryPasswordRejectsWrongKeyLength(t *testing.T) {
	_, err := bde.FormatRecoveryPassword(make([]byte, 10))
	require.Error(t, err)
}
