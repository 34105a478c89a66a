package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPayloadRoundTrip(t *testing.T) {
	p := AssetsAvailablePayload(42)
	assert.Equal(t, "assets_available:42", p)

	id, err := parseSessionPayload(p, cbAssetsAvailable)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestAssetSessionPayloadRoundTrip(t *testing.T) {
	p := BuyAssetPayload(7, 42)
	assert.Equal(t, "buy_asset:7-42", p)

	assetID, sessionID, err := parseAssetSessionPayload(p, cbBuyAsset)
	require.NoError(t, err)
	assert.Equal(t, int64(7), assetID)
	assert.Equal(t, int64(42), sessionID)
}

func TestPayloadParseErrors(t *testing.T) {
	_, err := parseSessionPayload("assets_available:abc", cbAssetsAvailable)
	assert.Error(t, err)

	_, _, err = parseAssetSessionPayload("buy_asset:7", cbBuyAsset)
	assert.Error(t, err)

	_, _, err = parseAssetSessionPayload("buy_asset:x-42", cbBuyAsset)
	assert.Error(t, err)

	_, _, err = parseAssetSessionPayload("buy_asset:7-y", cbBuyAsset)
	assert.Error(t, err)
}
