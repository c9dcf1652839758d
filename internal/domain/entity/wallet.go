package entity

// Wallet is a tracked address.
type Wallet struct {
	Address string `json:"address" yaml:"address"`
}
