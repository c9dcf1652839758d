package utils

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

const weiDecimals = 18

// FormatBaseUnits converts a base-unit big.Int to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBaseUnits(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ToTxFee returns gasLimit * gasPrice expressed in ether.
func ToTxFee(gasLimit, gasPrice any) decimal.Decimal {
	return ToDecimal(gasLimit).Mul(ToDecimal(gasPrice)).Shift(-weiDecimals)
}

// ToHex encodes the integer part of value as a 0x-prefixed quantity.
func ToHex(value any) string {
	return hexutil.EncodeBig(ToDecimal(value).BigInt())
}

// ToChecksumAddress returns the EIP-55 form of a hex address.
func ToChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("invalid hex address %q", address)
	}
	return common.HexToAddress(address).Hex(), nil
}
