package chain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

const etherDecimals = 18

var weiPerEther = big.NewInt(params.Ether)

// FormatEther renders a wei amount as decimal ETH. Trailing zeros are trimmed
// but at least one fractional digit is kept: 0 → "0.0", 1e17 → "0.1".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	fracStr := fmt.Sprintf("%0*s", etherDecimals, frac.String())
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}

	out := whole.String() + "." + fracStr
	if neg {
		out = "-" + out
	}
	return out
}

// ParseEther converts a decimal ETH string ("0.1", "2", ".5") into wei.
// At most 18 fractional digits are accepted; negative values are rejected.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty ETH value")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative ETH value: %s", s)
	}

	whole, frac, hasPoint := strings.Cut(s, ".")
	if hasPoint && frac == "" {
		return nil, fmt.Errorf("invalid ETH value: %s", s)
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > etherDecimals {
		return nil, fmt.Errorf("too many decimal places in %s (max %d)", s, etherDecimals)
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid ETH value: %s", s)
	}

	digits := whole + frac + strings.Repeat("0", etherDecimals-len(frac))
	wei, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid ETH value: %s", s)
	}
	return wei, nil
}

// ChainIDHex encodes a chain id the way wallet_switchEthereumChain expects it.
func ChainIDHex(id int64) string {
	return "0x" + strconv.FormatInt(id, 16)
}

// ParseChainIDHex decodes a 0x-prefixed hex chain id.
func ParseChainIDHex(s string) (int64, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return 0, fmt.Errorf("chain id %q is not 0x-prefixed", s)
	}
	id, err := strconv.ParseInt(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse chain id %q: %w", s, err)
	}
	return id, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
