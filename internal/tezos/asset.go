package tezos

import "fmt"

// Asset identifies a transferable asset on the chain.
type Asset string

const (
	// AssetTez is the chain's native currency.
	AssetTez Asset = "tez"
	// AssetUSDT is the FA2 fungible token handled by the gateway.
	AssetUSDT Asset = "usdt"
)

// Assets lists every asset the gateway knows about.
func Assets() []Asset {
	return []Asset{AssetTez, AssetUSDT}
}

// ParseAsset converts a wire-level asset name into an Asset.
func ParseAsset(s string) (Asset, error) {
	switch Asset(s) {
	case AssetTez, AssetUSDT:
		return Asset(s), nil
	default:
		return "", fmt.Errorf("unknown asset %q", s)
	}
}

// Currency returns the ledger-facing currency code for the asset.
func (a Asset) Currency() string {
	switch a {
	case AssetUSDT:
		return "USDT"
	default:
		return "XTZ"
	}
}
