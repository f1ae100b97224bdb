package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-crawler/internal/solana"
)

func TestResolveSelectors_Literal(t *testing.T) {
	ix := &Instruction{Accounts: []solana.Pubkey{testKey(1), testKey(2), testKey(3)}}

	resolved, ok := resolveSelectors([]AccountSelector{
		AccountAt("first", 0),
		AccountAt("last", 2),
	}, ix)

	require.True(t, ok)
	assert.Equal(t, testKey(1), resolved["first"])
	assert.Equal(t, testKey(3), resolved["last"])
}

func TestResolveSelectors_LiteralOutOfRange(t *testing.T) {
	ix := &Instruction{Accounts: []solana.Pubkey{testKey(1)}}

	_, ok := resolveSelectors([]AccountSelector{
		AccountAt("a", 0),
		AccountAt("b", 5),
	}, ix)

	assert.False(t, ok, "one failing selector rejects the whole instruction")
}

func TestResolveSelectors_Alias(t *testing.T) {
	ix := &Instruction{Accounts: []solana.Pubkey{testKey(1), testKey(2)}}

	resolved, ok := resolveSelectors([]AccountSelector{
		AccountAt("mint", 1),
		AccountAlias("alias", "mint"),
	}, ix)

	require.True(t, ok)
	assert.Equal(t, resolved["mint"], resolved["alias"])
}

func TestResolveSelectors_AliasChain(t *testing.T) {
	ix := &Instruction{Accounts: []solana.Pubkey{testKey(7)}}

	resolved, ok := resolveSelectors([]AccountSelector{
		AccountAt("a", 0),
		AccountAlias("b", "a"),
		AccountAlias("c", "b"),
	}, ix)

	require.True(t, ok)
	assert.Equal(t, testKey(7), resolved["c"])
}

func TestResolveSelectors_AliasOfUnresolved(t *testing.T) {
	ix := &Instruction{Accounts: []solana.Pubkey{testKey(1)}}

	// The alias runs before its source has a value on this instruction.
	_, ok := resolveSelectors([]AccountSelector{
		AccountAlias("alias", "mint"),
		AccountAt("mint", 0),
	}, ix)

	assert.False(t, ok)
}

func TestAccountSelector_Label(t *testing.T) {
	assert.Equal(t, "mint", AccountAt("mint", 5).Label())
	assert.Equal(t, "alias", AccountAlias("alias", "mint").Label())
}
