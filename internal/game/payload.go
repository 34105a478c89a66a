package game

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback payload keys. Compound payloads carry ids after a colon;
// asset-scoped payloads join asset and session ids with a dash.
const (
	cbConfirm         = "confirm"
	cbCancel          = "cancel"
	cbAssetsAvailable = "assets_available:"
	cbAssetInfo       = "asset_info:"
	cbBuyAsset        = "buy_asset:"
	cbSellAsset       = "sell_asset:"
)

// AssetsAvailablePayload renders the payload listing a session's assets.
func AssetsAvailablePayload(sessionID int64) string {
	return cbAssetsAvailable + strconv.FormatInt(sessionID, 10)
}

// AssetInfoPayload renders the payload showing one asset in a session.
func AssetInfoPayload(assetID, sessionID int64) string {
	return fmt.Sprintf("%s%d-%d", cbAssetInfo, assetID, sessionID)
}

// BuyAssetPayload renders the payload buying one asset in a session.
func BuyAssetPayload(assetID, sessionID int64) string {
	return fmt.Sprintf("%s%d-%d", cbBuyAsset, assetID, sessionID)
}

// SellAssetPayload renders the payload selling one asset in a session.
func SellAssetPayload(assetID, sessionID int64) string {
	return fmt.Sprintf("%s%d-%d", cbSellAsset, assetID, sessionID)
}

// parseSessionPayload extracts the session id from "<prefix><sessionID>".
func parseSessionPayload(payload, prefix string) (int64, error) {
	raw := strings.TrimPrefix(payload, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("payload %q: bad session id: %w", payload, err)
	}
	return id, nil
}

// parseAssetSessionPayload extracts asset and session ids from
// "<prefix><assetID>-<sessionID>".
func parseAssetSessionPayload(payload, prefix string) (assetID, sessionID int64, err error) {
	raw := strings.TrimPrefix(payload, prefix)
	left, right, ok := strings.Cut(raw, "-")
	if !ok {
		return 0, 0, fmt.Errorf("payload %q: missing separator", payload)
	}
	assetID, err = strconv.ParseInt(left, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("payload %q: bad asset id: %w", payload, err)
	}
	sessionID, err = strconv.ParseInt(right, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("payload %q: bad session id: %w", payload, err)
	}
	return assetID, sessionID, nil
}
