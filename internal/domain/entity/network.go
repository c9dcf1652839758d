package entity

// NetworkDefinition describes the chain a native asset lives on.
// This structure is defined at the domain level to be used across application and infrastructure layers.
type NetworkDefinition struct {
	ChainID          uint64   `json:"chainId" yaml:"chainId"`
	Name             string   `json:"name" yaml:"name"`
	Identifier       string   `json:"identifier" yaml:"identifier"` // уникальный идентификатор сети (например, "ethereum")
	NativeSymbol     string   `json:"nativeSymbol" yaml:"nativeSymbol"`
	Decimals         int32    `json:"decimals" yaml:"decimals"`
	PrimaryRPCURL    string   `json:"primaryRpcUrl,omitempty" yaml:"primaryRpcUrl,omitempty"`
	FallbackRPCURLs  []string `json:"fallbackRpcUrls,omitempty" yaml:"fallbackRpcUrls,omitempty"`
	BlockExplorerURL string   `json:"blockExplorerUrl,omitempty" yaml:"blockExplorerUrl,omitempty"`
	// BalanceBackend selects how balances of the native asset are discovered.
	BalanceBackend BackendKind `json:"balanceBackend" yaml:"balanceBackend"`
	// HostsTokens marks the chain whose node answers ERC20 balanceOf calls.
	HostsTokens bool `json:"hostsTokens" yaml:"hostsTokens"`
}
