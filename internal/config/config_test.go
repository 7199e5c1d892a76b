package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssets(t *testing.T) {
	assets, err := ParseAssets(`[{"symbol":"WETH","feed":"static","decimals":8,"price":"200000000000"}]`)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, "WETH", assets[0].Symbol)
	assert.Equal(t, "static", assets[0].Feed)
	assert.Equal(t, uint8(8), assets[0].Decimals)
}

func TestParseAssets_EmptyIsNoAssets(t *testing.T) {
	assets, err := ParseAssets("")
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestParseAssets_MalformedJSONIsAnError(t *testing.T) {
	// A typo must surface as a parse error, not as an empty asset list.
	_, err := ParseAssets(`[{"symbol":"WETH",`)
	assert.Error(t, err)
}
