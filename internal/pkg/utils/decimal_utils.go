package utils

import (
	stdjson "encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ToDecimal coerces an arbitrary raw value into a decimal.
// Unparseable input, nil, "" and the empty hex string "0x" all yield zero;
// the function never fails.
func ToDecimal(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v == nil {
			return decimal.Zero
		}
		return *v
	case decimal.NullDecimal:
		if !v.Valid {
			return decimal.Zero
		}
		return v.Decimal
	case string:
		return parseDecimalString(v)
	case stdjson.Number:
		return parseDecimalString(string(v))
	case jsoniter.Number:
		return parseDecimalString(string(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
	case uint32:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(v)), 0)
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case *big.Int:
		if v == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(v, 0)
	case big.Int:
		return decimal.NewFromBigInt(&v, 0)
	case *hexutil.Big:
		if v == nil {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(v.ToInt(), 0)
	case hexutil.Big:
		return decimal.NewFromBigInt(v.ToInt(), 0)
	case fmt.Stringer:
		return parseDecimalString(v.String())
	default:
		return decimal.Zero
	}
}

func parseDecimalString(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" || s == "0x" || s == "0X" {
		return decimal.Zero
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return decimal.Zero
		}
		return decimal.NewFromBigInt(n, 0)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ToMainUnit converts a base-unit amount into display units: value / 10^decimals.
func ToMainUnit(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Shift(-decimals)
}

// ToBaseUnit converts a display-unit amount into base units: value * 10^decimals.
func ToBaseUnit(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Shift(decimals)
}

// RoundToPrecision rounds half away from zero to the given number of decimal places.
func RoundToPrecision(value decimal.Decimal, decimals int32) decimal.Decimal {
	return value.Round(decimals)
}

// ToUnitValue converts amount by rate (multiplying, or dividing when invert is set)
// and rounds the result. Dividing by a zero rate yields zero.
func ToUnitValue(amount, rate decimal.Decimal, decimals int32, invert bool) decimal.Decimal {
	if invert {
		if rate.IsZero() {
			return decimal.Zero
		}
		return amount.DivRound(rate, decimals)
	}
	return RoundToPrecision(amount.Mul(rate), decimals)
}

// ToPercentageOf returns amount as a percentage of total, rounded to decimals places.
// A zero total yields zero.
func ToPercentageOf(amount, total decimal.Decimal, decimals int32) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return amount.Mul(hundred).DivRound(total, decimals)
}
