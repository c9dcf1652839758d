package service

import (
	"testing"
	"time"

	"portfolio_tracker/internal/domain/entity"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(symbol, balance, price, change string) entity.PortfolioEntry {
	p := dec(price)
	return entity.PortfolioEntry{
		Asset:    entity.Asset{Symbol: symbol},
		Price:    &p,
		Change24: dec(change),
		Balance:  dec(balance),
	}
}

func TestBuildSnapshotSingleAsset(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := BuildSnapshot("0xabc", []entity.PortfolioEntry{priced("ETH", "2", "100", "0")}, "ETH", now)

	require.Len(t, snap.List, 1)
	eth := snap.List[0]
	assert.True(t, eth.Shown)
	assert.True(t, eth.Fiat.Equal(dec("200")))
	assert.True(t, eth.Percentage.Equal(dec("100")))
	assert.True(t, snap.Total.Equal(dec("200")))
	assert.True(t, snap.Total24hAgo.Equal(dec("200")))
	assert.True(t, snap.TotalChange.IsZero())
	assert.Equal(t, now, snap.UpdatedAt)
	assert.Equal(t, "0xabc", snap.WalletAddress)
}

func TestBuildSnapshotSortsAndShows(t *testing.T) {
	entries := []entity.PortfolioEntry{
		priced("ETH", "0", "100", "0"),
		priced("OMG", "10", "1", "0"),
		priced("BAT", "1", "30", "0"),
		priced("ZRX", "0", "2", "0"),
	}
	snap := BuildSnapshot("0xabc", entries, "ETH", time.Now())

	symbols := make([]string, 0, len(snap.List))
	for _, e := range snap.List {
		symbols = append(symbols, e.Symbol)
	}
	// Zero-fiat entries keep their relative order.
	assert.Equal(t, []string{"BAT", "OMG", "ETH", "ZRX"}, symbols)

	eth, _ := snap.Entry("ETH")
	zrx, _ := snap.Entry("ZRX")
	assert.True(t, eth.Shown, "reference symbol is always shown")
	assert.False(t, zrx.Shown)

	bat, _ := snap.Entry("BAT")
	omg, _ := snap.Entry("OMG")
	assert.True(t, bat.Percentage.Equal(dec("75")))
	assert.True(t, omg.Percentage.Equal(dec("25")))
}

func TestBuildSnapshotRoundingCorrection(t *testing.T) {
	entries := []entity.PortfolioEntry{
		priced("A", "1", "1", "0"),
		priced("B", "1", "1", "0"),
		priced("C", "1", "1", "0"),
	}
	snap := BuildSnapshot("0xabc", entries, "ETH", time.Now())

	assert.True(t, snap.List[0].Percentage.Equal(dec("33.34")), "got %s", snap.List[0].Percentage)
	assert.True(t, snap.List[1].Percentage.Equal(dec("33.33")))
	assert.True(t, snap.List[2].Percentage.Equal(dec("33.33")))
}

func TestBuildSnapshotZeroTotal(t *testing.T) {
	entries := []entity.PortfolioEntry{
		priced("ETH", "2", "0", "0"),
		priced("OMG", "5", "0", "0"),
	}
	snap := BuildSnapshot("0xabc", entries, "ETH", time.Now())

	assert.True(t, snap.Total.IsZero())
	assert.True(t, snap.TotalChange.IsZero())
	for _, e := range snap.List {
		assert.True(t, e.Percentage.IsZero(), "%s: %s", e.Symbol, e.Percentage)
		assert.True(t, e.Shown)
	}
}

func TestBuildSnapshotSkipsUnpricedEntries(t *testing.T) {
	entries := []entity.PortfolioEntry{
		{Asset: entity.Asset{Symbol: "XYZ"}, Balance: dec("1000")},
		priced("ETH", "1", "50", "0"),
	}
	snap := BuildSnapshot("0xabc", entries, "ETH", time.Now())

	assert.True(t, snap.Total.Equal(dec("50")))
	xyz, ok := snap.Entry("XYZ")
	require.True(t, ok)
	assert.True(t, xyz.Fiat.IsZero())
	assert.True(t, xyz.Percentage.IsZero())
	assert.True(t, xyz.Shown)
}

func TestBuildSnapshotTotalChange(t *testing.T) {
	// Price went up 25% in 24h: 125 now, 100 a day ago.
	snap := BuildSnapshot("0xabc", []entity.PortfolioEntry{priced("ETH", "1", "125", "25")}, "ETH", time.Now())

	assert.True(t, snap.Total.Equal(dec("125")))
	assert.True(t, snap.Total24hAgo.Equal(dec("100")))
	assert.True(t, snap.TotalChange.Equal(dec("25")), "got %s", snap.TotalChange)
}

func TestPriceDayAgo(t *testing.T) {
	assert.True(t, PriceDayAgo(dec("110"), dec("10")).Equal(dec("100")))
	assert.True(t, PriceDayAgo(dec("100"), dec("0")).Equal(dec("100")))
	assert.True(t, PriceDayAgo(dec("50"), dec("-50")).Equal(dec("100")))
	assert.True(t, PriceDayAgo(dec("5"), dec("-100")).IsZero())
}

func TestTotalChange(t *testing.T) {
	assert.True(t, TotalChange(dec("150"), dec("100")).Equal(dec("50")))
	assert.True(t, TotalChange(dec("50"), dec("100")).Equal(dec("-50")))
	assert.True(t, TotalChange(dec("150"), decimal.Zero).IsZero())
}

func TestFixPercentageRoundingEmpty(t *testing.T) {
	assert.NotPanics(t, func() { FixPercentageRounding(nil) })
}

func TestPercentagesSumToHundredProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("corrected percentages add up to 100", prop.ForAll(
		func(cents []int64) bool {
			entries := make([]entity.PortfolioEntry, len(cents))
			for i, c := range cents {
				p := decimal.NewFromInt(1)
				entries[i] = entity.PortfolioEntry{
					Asset:   entity.Asset{Symbol: string(rune('A' + i))},
					Price:   &p,
					Balance: decimal.New(c, -2),
				}
			}
			snap := BuildSnapshot("0xabc", entries, "A", time.Now())
			if snap.Total.IsZero() {
				return true
			}
			sum := decimal.Zero
			for _, e := range snap.List {
				sum = sum.Add(e.Percentage)
			}
			return sum.Equal(hundred)
		},
		gen.SliceOfN(12, gen.Int64Range(0, 10_000_000)),
	))

	properties.Property("list is sorted by fiat descending", prop.ForAll(
		func(cents []int64) bool {
			entries := make([]entity.PortfolioEntry, len(cents))
			for i, c := range cents {
				p := decimal.NewFromInt(1)
				entries[i] = entity.PortfolioEntry{Price: &p, Balance: decimal.New(c, -2)}
			}
			snap := BuildSnapshot("0xabc", entries, "", time.Now())
			for i := 1; i < len(snap.List); i++ {
				if snap.List[i].Fiat.GreaterThan(snap.List[i-1].Fiat) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int64Range(0, 10_000_000)),
	))

	properties.TestingRun(t)
}
