package entity

import "github.com/shopspring/decimal"

// MockOverride substitutes live balance and/or price data for one symbol.
// Values are in display units.
type MockOverride struct {
	Balance decimal.NullDecimal `json:"balance"`
	Price   decimal.NullDecimal `json:"price"`
}

// MockOverrides maps a symbol to its override. A nil map means no overrides.
type MockOverrides map[string]MockOverride

// Balance returns the mocked display-unit balance for symbol.
func (m MockOverrides) Balance(symbol string) (decimal.Decimal, bool) {
	o, ok := m[symbol]
	if !ok || !o.Balance.Valid {
		return decimal.Zero, false
	}
	return o.Balance.Decimal, true
}

// Price returns the mocked fiat price for symbol.
func (m MockOverrides) Price(symbol string) (decimal.Decimal, bool) {
	o, ok := m[symbol]
	if !ok || !o.Price.Valid {
		return decimal.Zero, false
	}
	return o.Price.Decimal, true
}
