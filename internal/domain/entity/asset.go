package entity

import "strings"

// AssetKind distinguishes chain-native coins from contract tokens.
type AssetKind int

const (
	// NativeAsset is the coin of its own chain (ETH, BTC, ...).
	NativeAsset AssetKind = iota
	// TokenAsset is a contract token (ERC20) living on a host chain.
	TokenAsset
)

func (k AssetKind) String() string {
	switch k {
	case NativeAsset:
		return "native"
	case TokenAsset:
		return "token"
	default:
		return "unknown"
	}
}

// Asset is a registry entry as served by the asset registry endpoint.
// Assets are immutable once loaded.
type Asset struct {
	Symbol          string `json:"symbol" yaml:"symbol"`
	Name            string `json:"name" yaml:"name"`
	Decimals        int32  `json:"decimals" yaml:"decimals"`
	ERC20           bool   `json:"ERC20" yaml:"ERC20"`
	ContractAddress string `json:"contractAddress,omitempty" yaml:"contractAddress,omitempty"`
	Deposit         bool   `json:"deposit" yaml:"deposit"`
	Receive         bool   `json:"receive" yaml:"receive"`
	// Portfolio is computed when the worklist is prepared: the asset can be both
	// tracked and swapped.
	Portfolio bool `json:"portfolio" yaml:"portfolio"`
}

// Kind reports whether the asset is a native coin or a contract token.
func (a Asset) Kind() AssetKind {
	if a.ERC20 {
		return TokenAsset
	}
	return NativeAsset
}

// HasContract reports whether a token asset carries a usable contract address.
func (a Asset) HasContract() bool {
	return strings.TrimSpace(a.ContractAddress) != ""
}

// SupportsSwap reports whether the asset can be both deposited and received.
func (a Asset) SupportsSwap() bool {
	return a.Deposit && a.Receive
}
