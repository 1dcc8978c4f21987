package engine

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// EtherDecimals 1 ether = 10^18 wei
const EtherDecimals = 18

// ParseEther 十进制 ETH 字符串转换为 wei，不经过浮点数
// 超过 18 位小数不做截断，直接拒绝
func ParseEther(amount string) (*big.Int, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, invalidRequest("amount is empty")
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return nil, invalidRequest("amount %q is not a decimal number", amount)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return nil, invalidRequest("amount %q is not a decimal number", amount)
	}
	if len(frac) > EtherDecimals {
		return nil, invalidRequest("amount %q has more than %d fractional digits", amount, EtherDecimals)
	}
	frac += strings.Repeat("0", EtherDecimals-len(frac))

	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return new(big.Int), nil
	}
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, invalidRequest("amount %q is not a decimal number", amount)
	}
	return wei, nil
}

// FormatEther wei 转为十进制 ETH 字符串，去掉多余的 0
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)
	whole, frac := new(big.Int).QuoRem(abs, big.NewInt(params.Ether), new(big.Int))

	s := whole.String()
	if frac.Sign() != 0 {
		fs := frac.String()
		fs = strings.Repeat("0", EtherDecimals-len(fs)) + fs
		s += "." + strings.TrimRight(fs, "0")
	}
	if neg {
		s = "-" + s
	}
	return s
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
