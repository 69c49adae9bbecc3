// Package amount converts between decimal strings used on the wire and
// the int64 minor units (1e-8) the ledger stores. Eight fractional
// digits cover every supported chain's smallest unit.
package amount

import (
	"fmt"
	"strconv"
	"strings"
)

// Decimals is the fixed scale of minor units.
const Decimals = 8

const scale = 100_000_000

// ParseMinor converts a decimal string with up to 8 fractional digits
// into minor units. The result must be strictly positive; amounts on
// every inbound surface (bets, withdrawals, deposit notifications) are.
func ParseMinor(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("amount required")
	}

	neg := false
	if s[0] == '+' {
		s = s[1:]
	} else if s[0] == '-' {
		neg = true
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, fmt.Errorf("invalid amount")
	}

	intPart := parts[0]
	frac := strings.Repeat("0", Decimals)
	if len(parts) == 2 {
		if len(parts[1]) > Decimals {
			return 0, fmt.Errorf("amount supports up to %d decimals", Decimals)
		}
		if parts[1] == "" {
			return 0, fmt.Errorf("invalid amount")
		}
		frac = parts[1] + strings.Repeat("0", Decimals-len(parts[1]))
	}

	if intPart == "" {
		intPart = "0"
	}

	ip, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount integer part")
	}

	fp, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount fractional part")
	}

	if ip > (1<<62)/scale {
		return 0, fmt.Errorf("amount out of range")
	}

	total := ip*scale + fp
	if neg {
		total = -total
	}

	if total <= 0 {
		return 0, fmt.Errorf("amount must be > 0")
	}

	return total, nil
}

// FormatMinor renders minor units as a decimal string with trailing
// zeros trimmed: 1000000000 -> "10", 100000 -> "0.001".
func FormatMinor(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	ip := v / scale
	fp := v % scale

	out := strconv.FormatInt(ip, 10)
	if fp != 0 {
		frac := fmt.Sprintf("%08d", fp)
		frac = strings.TrimRight(frac, "0")
		out += "." + frac
	}

	if neg {
		out = "-" + out
	}

	return out
}
