package service

import (
	"sort"
	"time"

	"portfolio_tracker/internal/domain/entity"
	"portfolio_tracker/internal/pkg/utils"

	"github.com/shopspring/decimal"
)

const fiatPrecision int32 = 2

var hundred = decimal.NewFromInt(100)

// BuildSnapshot derives visibility, fiat values, totals and allocation for
// entries whose balances are already resolved. entries is reordered in place.
func BuildSnapshot(walletAddress string, entries []entity.PortfolioEntry, referenceSymbol string, now time.Time) *entity.PortfolioSnapshot {
	total := decimal.Zero
	total24hAgo := decimal.Zero

	for i := range entries {
		e := &entries[i]
		e.Shown = e.Symbol == referenceSymbol || e.Balance.IsPositive()

		if !e.HasPrice() {
			e.Fiat = decimal.Zero
			continue
		}
		e.Fiat = utils.ToUnitValue(e.Balance, *e.Price, fiatPrecision, false)
		fiat24hAgo := utils.ToUnitValue(e.Balance, PriceDayAgo(*e.Price, e.Change24), fiatPrecision, false)

		total = total.Add(e.Fiat)
		total24hAgo = total24hAgo.Add(fiat24hAgo)
	}

	for i := range entries {
		entries[i].Percentage = utils.ToPercentageOf(entries[i].Fiat, total, fiatPrecision)
	}

	// Stable so that equal fiat values keep worklist order.
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Fiat.GreaterThan(entries[b].Fiat)
	})

	if !total.IsZero() {
		FixPercentageRounding(entries)
	}

	return &entity.PortfolioSnapshot{
		WalletAddress: walletAddress,
		Total:         total,
		Total24hAgo:   total24hAgo,
		TotalChange:   TotalChange(total, total24hAgo),
		List:          entries,
		UpdatedAt:     now,
	}
}

// PriceDayAgo returns the price implied by the current price and its 24h
// percent change. A change of -100% yields zero.
func PriceDayAgo(price, change24 decimal.Decimal) decimal.Decimal {
	divisor := change24.Add(hundred).Div(hundred)
	if divisor.IsZero() {
		return decimal.Zero
	}
	return price.Div(divisor)
}

// FixPercentageRounding adds the deviation of the percentage sum from 100 to
// the first entry. entries must already be sorted by fiat, descending.
func FixPercentageRounding(entries []entity.PortfolioEntry) {
	if len(entries) == 0 {
		return
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Percentage)
	}
	if deviation := hundred.Sub(sum); !deviation.IsZero() {
		entries[0].Percentage = entries[0].Percentage.Add(deviation)
	}
}

// TotalChange is the percent change between the two totals, zero when the
// 24h-ago total is zero.
func TotalChange(total, total24hAgo decimal.Decimal) decimal.Decimal {
	if total24hAgo.IsZero() {
		return decimal.Zero
	}
	return total.Sub(total24hAgo).Div(total24hAgo).Mul(hundred)
}
