package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitByComma(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitByComma(" a, ,b ,"))
	assert.Empty(t, SplitByComma("  "))
}

func TestStringConversions(t *testing.T) {
	u, err := StringToUint64("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), u)

	_, err = StringToUint64("-1")
	require.Error(t, err)

	i, err := StringToInt64("-7")
	require.NoError(t, err)
	assert.Equal(t, int64(-7), i)

	b, err := StringToBool("true")
	require.NoError(t, err)
	assert.True(t, b)
	_, err = StringToBool("TRUE")
	require.Error(t, err)
}
