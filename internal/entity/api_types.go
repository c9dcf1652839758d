package entity

import "encoding/json"

// PriceData is one quote as served by the portfolio-price endpoints.
// Numeric fields arrive either as JSON numbers or as strings and may be absent,
// so they are kept raw and coerced by the price service.
type PriceData struct {
	Symbol           string `json:"symbol"`
	PriceUSD         any    `json:"price_usd"`
	PercentChange24h any    `json:"percent_change_24h"`
	Volume24hUSD     any    `json:"24h_volume_usd"`
	MarketCapUSD     any    `json:"market_cap_usd"`
}

// ChartResponse is the portfolio-chart payload: [timestamp, price] pairs.
type ChartResponse struct {
	PriceUSD [][]any `json:"price_usd"`
}

// ErrorResponse is the conventional error payload of both APIs.
type ErrorResponse struct {
	Error any `json:"error"`
}

// SwundleResponse wraps a stored swap bundle.
type SwundleResponse struct {
	Result *SwundleResult `json:"result"`
}

// SwundleResult holds the bundle document.
type SwundleResult struct {
	Swap json.RawMessage `json:"swap"`
}

// SwundleRequest is the body used to persist a swap bundle.
type SwundleRequest struct {
	Swap json.RawMessage `json:"swap"`
}
