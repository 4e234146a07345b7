package utils

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const etherDecimals = 18

// roundUnit is 10^15 base units, the 0.001 display precision used when rounding.
var roundUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(15), nil)

// ParseWei parses a base-unit integer string. Empty or malformed input yields zero.
func ParseWei(s string) *big.Int {
	n, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return new(big.Int)
	}
	return n
}

// FormatWei renders an 18-decimal base-unit amount as "<decimal> <symbol>".
// With round set the amount is first truncated toward zero to a multiple of 10^15.
func FormatWei(symbol, wei string, round bool) string {
	return FormatBigWei(symbol, ParseWei(wei), round)
}

func FormatBigWei(symbol string, wei *big.Int, round bool) string {
	n := new(big.Int)
	if wei != nil {
		n.Set(wei)
	}
	if round {
		n.Quo(n, roundUnit)
		n.Mul(n, roundUnit)
	}
	return decimal.NewFromBigInt(n, -etherDecimals).String() + " " + symbol
}

// WeiToEther converts base units to a float for charting only.
func WeiToEther(wei string) float64 {
	f, _ := decimal.NewFromBigInt(ParseWei(wei), -etherDecimals).Float64()
	return f
}

// CompressHash keeps the first and last five characters joined by an ellipsis.
func CompressHash(h string) string {
	if utf8.RuneCountInString(h) < 10 {
		return h
	}
	r := []rune(h)
	return string(r[:5]) + "…" + string(r[len(r)-5:])
}

// FunctionName extracts the method name from a decoded signature such as
// "approve(address,uint256)". Plain transfers have no signature.
func FunctionName(signature string) string {
	if signature == "" {
		return "transfer"
	}
	if i := strings.Index(signature, "("); i >= 0 {
		return signature[:i]
	}
	return signature
}

func TruncateString(str string, num int) string {
	if len(str) <= num {
		return str
	}
	if num <= 3 {
		return str[:num]
	}
	return str[0:num-3] + "..."
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}
