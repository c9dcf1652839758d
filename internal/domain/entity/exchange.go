package entity

import (
	"encoding/json"
	"fmt"
)

// MarketInfo is the exchange's view of a trading pair.
type MarketInfo struct {
	Pair     string      `json:"pair"`
	Rate     json.Number `json:"rate,omitempty"`
	Limit    json.Number `json:"limit,omitempty"`
	Min      json.Number `json:"min,omitempty"`
	MinerFee json.Number `json:"minerFee,omitempty"`
}

// ExchangeOrder is the body of an order submission.
type ExchangeOrder struct {
	Pair          string `json:"pair"`
	Withdrawal    string `json:"withdrawal"`
	ReturnAddress string `json:"returnAddress,omitempty"`
	Amount        string `json:"amount,omitempty"`
}

// OrderReceipt is the exchange's answer to an accepted order.
type OrderReceipt struct {
	OrderID        string `json:"orderId"`
	Deposit        string `json:"deposit"`
	DepositType    string `json:"depositType"`
	Withdrawal     string `json:"withdrawal"`
	WithdrawalType string `json:"withdrawalType"`
	Error          string `json:"error,omitempty"`
}

// OrderStatus is the full transaction status reported for a deposit address.
type OrderStatus struct {
	Status       string      `json:"status"`
	Address      string      `json:"address"`
	Withdraw     string      `json:"withdraw,omitempty"`
	IncomingCoin json.Number `json:"incomingCoin,omitempty"`
	IncomingType string      `json:"incomingType,omitempty"`
	OutgoingCoin string      `json:"outgoingCoin,omitempty"`
	OutgoingType string      `json:"outgoingType,omitempty"`
	Transaction  string      `json:"transaction,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// SwapOrder is the subset of an OrderStatus persisted per swap pair.
type SwapOrder struct {
	Status       string `json:"status,omitempty"`
	Transaction  string `json:"transaction,omitempty"`
	OutgoingCoin string `json:"outgoingCoin,omitempty"`
	Error        string `json:"error,omitempty"`
}

// SwapOrderFromStatus keeps only the fields tracked for a swap pair.
func SwapOrderFromStatus(s OrderStatus) SwapOrder {
	return SwapOrder{
		Status:       s.Status,
		Transaction:  s.Transaction,
		OutgoingCoin: s.OutgoingCoin,
		Error:        s.Error,
	}
}

// SwapPairKey identifies a swap-order record.
func SwapPairKey(depositSymbol, receiveSymbol string) string {
	return fmt.Sprintf("%s_%s", depositSymbol, receiveSymbol)
}

// SwapBundle is the opaque pending-swap document persisted per wallet address.
type SwapBundle = json.RawMessage
