package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePubkey(t *testing.T) {
	assert.Equal(t, "0xabcd", NormalizePubkey("0xABCD"))
	assert.Equal(t, "0xabcd", NormalizePubkey(" ABCD "))
	assert.Equal(t, []string{"0xab", "0xcd"}, NormalizePubkeys([]string{"AB", "0xCd"}))
}

func TestValidatePubkey(t *testing.T) {
	valid := "0x" + strings.Repeat("a1", PubkeyLength)
	require.NoError(t, ValidatePubkey(valid))
	require.NoError(t, ValidatePubkey(strings.ToUpper(valid[2:])))

	assert.Error(t, ValidatePubkey("0x"+strings.Repeat("a1", PubkeyLength-1)))
	assert.Error(t, ValidatePubkey("0x"+strings.Repeat("zz", PubkeyLength)))
	assert.Error(t, ValidatePubkey(""))
}

func TestSplitConcatenated(t *testing.T) {
	bz := make([]byte, 2*PubkeyLength)
	bz[0] = 0x01
	bz[PubkeyLength] = 0x02

	chunks, err := SplitConcatenated(bz, PubkeyLength)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.True(t, strings.HasPrefix(chunks[0], "0x01"))
	assert.True(t, strings.HasPrefix(chunks[1], "0x02"))
	assert.Len(t, chunks[0], 2+2*PubkeyLength)

	chunks, err = SplitConcatenated(nil, SignatureLength)
	require.NoError(t, err)
	assert.Empty(t, chunks)

	_, err = SplitConcatenated(bz[:PubkeyLength+1], PubkeyLength)
	assert.Error(t, err)
	_, err = SplitConcatenated(bz, 0)
	assert.Error(t, err)
}
