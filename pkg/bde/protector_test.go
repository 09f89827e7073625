package bde_test

import (
	"testing"

	"github.com/ostafen/gobde/pkg/bde"
	"github.com/ostafen/gobde/pkg/bde/bdetest"
	"github.com/stretchr/testify/require"
)

func TestProtectionTypeStringer(t *testing.T) {
	require.Equal(t, "recovery-password", bde.ProtectionTypeRecoveryPassword.String())
	require.Equal(t, "clear-key", bde.ProtectionTypeClearKey.String())
	require.Equal(t, "unknown", bde.ProtectionType(0x9999).String())
}

func TestProtectorsParsedFromBlock(t *testing.T) {
	guid := bdetest.RandomGUID()
	vmk := bdetest.RandomKey(32)

	clearKey := bdetest.RandomKey(32)
	clearProtector, err := bdetest.ClearKeyProtector(bdetest.RandomGUID(), clearKey, vmk)
	require.NoError(t, err)

	salt := bdetest.RandomKey(16)
	stretched := bdetest.RandomKey(32)
	recoveryProtector, err := bdetest.RecoveryPasswordProtector(bdetest.RandomGUID(), salt, stretched, vmk)
	require.NoError(t, err)

	raw := bdetest.Block(guid, 1, 1<<20, []bdetest.Entry{clearProtector, recoveryProtector})
	block, err := bde.ParseBlock(bde.NewMemorySource(raw), 0)
	require.NoError(t, err)

	protectors, errs := bde.ParseProtectors(block)
	require.Empty(t, errs)
	require.Len(t, protectors, 2)

	var sawClear, sawRecovery bool
	for _, p := range protectors {
		switch p.Type {
		case bde.ProtectionTypeClearKey:
			sawClear = true
			ext, ok := p.ExternalKey()
			require.True(t, ok)
			require.Equal(t, clearKey, ext.Data)
		case bde.ProtectionTypeRecoveryPassword:
			sawRecovery = true
			_, ok := p.StretchKey()
			require.True(t, ok)
		}
	}
	require.True(t, sawClear)
	require.True(t, sawRecovery)
}
