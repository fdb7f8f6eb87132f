package types

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenSymbol 账本代币符号
const TokenSymbol = "IOTA"

// Amount 以代币最小单位计的金额
type Amount = decimal.Decimal

var ZeroAmount = decimal.Zero

func NewAmount(i int64) Amount {
	return decimal.NewFromInt(i)
}

// ParseAmount 解析用户输入的金额
// 允许带代币符号后缀，例如 "100 IOTA"
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimSuffix(strings.ToUpper(s), TokenSymbol))
	if s == "" {
		return ZeroAmount, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroAmount, fmt.Errorf("failed to parse amount %q: %w", s, err)
	}
	return d, nil
}

// FormatAmount 格式化金额用于显示
func FormatAmount(a Amount) string {
	return a.String() + " " + TokenSymbol
}
