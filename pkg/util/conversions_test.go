package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSnowflake(t *testing.T) {
	assert := assert.New(t)

	id, err := NormalizeSnowflake(" 0012345 ")
	assert.NoError(err)
	assert.Equal("12345", id)

	for _, bad := range []string{"", "abc", "-1", "0", "12.5", "99999999999999999999"} {
		_, err := NormalizeSnowflake(bad)
		assert.Error(err, bad)
	}
}

func TestSplitIDs(t *testing.T) {
	ids, bad, err := SplitIDs("1, 2,,3 ")
	require.NoError(t, err)
	assert.Empty(t, bad)
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	_, bad, err = SplitIDs("1,x2,3")
	assert.Error(t, err)
	assert.Equal(t, "x2", bad)

	ids, _, err = SplitIDs("")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
