package utils

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEntryIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateEntryID()
		require.NoError(t, err)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestIsValidAddress(t *testing.T) {
	assert.True(t, IsValidAddress("0x1111111111111111111111111111111111111111"))
	assert.True(t, IsValidAddress("1111111111111111111111111111111111111111"))
	assert.False(t, IsValidAddress(""))
	assert.False(t, IsValidAddress("0x123"))
	assert.False(t, IsValidAddress("not-an-address"))
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeAddress("0xABCDEF"))
	assert.Equal(t, "0xabcdef", NormalizeAddress("ABCDEF"))
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", amount.String())

	zero, err := ParseAmount("0")
	require.NoError(t, err)
	assert.Zero(t, zero.Sign())

	for _, input := range []string{"", "abc", "1.5", "-100"} {
		_, err := ParseAmount(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, IsCode(err, ErrCodeInvalidAmount))
	}
}

func TestFormatTokenAmount(t *testing.T) {
	wei := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		return v
	}

	assert.Equal(t, "1", FormatTokenAmount(wei("1000000000000000000"), 18))
	assert.Equal(t, "1.5", FormatTokenAmount(wei("1500000000000000000"), 18))
	assert.Equal(t, "0.000000000000000001", FormatTokenAmount(wei("1"), 18))
	assert.Equal(t, "0", FormatTokenAmount(nil, 18))
	assert.Equal(t, "123", FormatTokenAmount(big.NewInt(123), 0))
}

func TestGenerateEntryIDShape(t *testing.T) {
	id, err := GenerateEntryID()
	require.NoError(t, err)
	parts := strings.SplitN(id, "-", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[1], 10, "5 random bytes hex-encoded")
}
