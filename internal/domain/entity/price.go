package entity

import "github.com/shopspring/decimal"

// PriceQuote is the fiat quote for a single symbol.
type PriceQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24  decimal.Decimal `json:"change24"`
	Volume24  decimal.Decimal `json:"volume24"`
	MarketCap decimal.Decimal `json:"marketCap"`
}

// ChartPoint is one sample of a price history series.
type ChartPoint struct {
	Timestamp int64           `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
}

// ChartData is the fiat price history of a symbol.
type ChartData struct {
	Symbol string       `json:"symbol"`
	Points []ChartPoint `json:"points"`
}
