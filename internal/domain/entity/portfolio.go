package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioEntry is an asset of the worklist together with everything the
// aggregation cycle attaches to it.
type PortfolioEntry struct {
	Asset
	// Price is nil while no quote has ever been attached to the entry.
	Price      *decimal.Decimal `json:"price,omitempty"`
	Change24   decimal.Decimal  `json:"change24"`
	Volume24   decimal.Decimal  `json:"volume24"`
	MarketCap  decimal.Decimal  `json:"marketCap"`
	Balance    decimal.Decimal  `json:"balance"`
	Fiat       decimal.Decimal  `json:"fiat"`
	Percentage decimal.Decimal  `json:"percentage"`
	Shown      bool             `json:"shown"`
}

// HasPrice reports whether a quote is attached.
func (e PortfolioEntry) HasPrice() bool {
	return e.Price != nil
}

// WithQuote returns a copy of the entry carrying the given quote.
func (e PortfolioEntry) WithQuote(q PriceQuote) PortfolioEntry {
	price := q.Price
	e.Price = &price
	e.Change24 = q.Change24
	e.Volume24 = q.Volume24
	e.MarketCap = q.MarketCap
	return e
}

// PortfolioSnapshot is the complete result of one aggregation cycle.
type PortfolioSnapshot struct {
	WalletAddress string           `json:"walletAddress"`
	Total         decimal.Decimal  `json:"total"`
	Total24hAgo   decimal.Decimal  `json:"total24hAgo"`
	TotalChange   decimal.Decimal  `json:"totalChange"`
	List          []PortfolioEntry `json:"list"`
	Errors        []PortfolioError `json:"errors,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// Entry returns the entry for symbol, if present.
func (s *PortfolioSnapshot) Entry(symbol string) (PortfolioEntry, bool) {
	if s == nil {
		return PortfolioEntry{}, false
	}
	for _, e := range s.List {
		if e.Symbol == symbol {
			return e, true
		}
	}
	return PortfolioEntry{}, false
}

// Clone returns a deep copy of the snapshot so that a stored snapshot is never
// mutated through a reader's reference.
func (s *PortfolioSnapshot) Clone() *PortfolioSnapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.List = make([]PortfolioEntry, len(s.List))
	copy(cp.List, s.List)
	cp.Errors = append([]PortfolioError(nil), s.Errors...)
	for i := range cp.List {
		if cp.List[i].Price != nil {
			p := *cp.List[i].Price
			cp.List[i].Price = &p
		}
	}
	return &cp
}
