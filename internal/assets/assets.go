// Package assets is the static registry of supported currencies: which
// chain each symbol lives on, how many confirmations a deposit needs
// before it is creditable, and what balance a fresh account starts with.
package assets

import (
	"errors"
	"strings"
)

var ErrUnsupportedAsset = errors.New("unsupported asset")

// Descriptor describes one supported asset. Immutable at runtime.
type Descriptor struct {
	Symbol        string
	Chain         string
	Confirmations int
	// XpubDerived marks chains where the wallet provider hands out an
	// extended public key instead of a ready address; a child address
	// at index 0 has to be derived from it.
	XpubDerived bool
}

var registry = map[string]Descriptor{
	"SOL": {Symbol: "SOL", Chain: "solana", Confirmations: 1},
	"ETH": {Symbol: "ETH", Chain: "ethereum", Confirmations: 12, XpubDerived: true},
	"LTC": {Symbol: "LTC", Chain: "litecoin", Confirmations: 6, XpubDerived: true},
	"BTC": {Symbol: "BTC", Chain: "bitcoin", Confirmations: 6, XpubDerived: true},
}

// startingBalances are the amounts (in minor units, 1e-8) a new account
// is seeded with on registration.
var startingBalances = map[string]int64{
	"SOL": 10_0000_0000,
	"LTC": 10_0000_0000,
	"ETH": 10_0000_0000,
	"BTC": 10_0000, // 0.001 BTC
}

// Canonical normalizes a user-supplied symbol ("sol", " Btc ") to the
// registry form.
func Canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func Supported(symbol string) bool {
	_, ok := registry[Canonical(symbol)]
	return ok
}

// Lookup returns the descriptor for a symbol.
func Lookup(symbol string) (Descriptor, error) {
	d, ok := registry[Canonical(symbol)]
	if !ok {
		return Descriptor{}, ErrUnsupportedAsset
	}

	return d, nil
}

// ChainFor maps a symbol to its chain name.
func ChainFor(symbol string) (string, error) {
	d, err := Lookup(symbol)
	if err != nil {
		return "", err
	}

	return d.Chain, nil
}

// ConfirmationsRequired returns the confirmation threshold for a symbol,
// defaulting to 1 for symbols outside the registry.
func ConfirmationsRequired(symbol string) int {
	d, ok := registry[Canonical(symbol)]
	if !ok {
		return 1
	}

	return d.Confirmations
}

// SymbolForChain is the inverse lookup used by webhook ingestion: the
// notifier reports a chain name ("BITCOIN", "solana"), we need the
// internal symbol. Case-insensitive.
func SymbolForChain(chain string) (string, error) {
	chain = strings.ToLower(strings.TrimSpace(chain))
	for _, d := range registry {
		if d.Chain == chain {
			return d.Symbol, nil
		}
	}

	return "", ErrUnsupportedAsset
}

// StartingBalances returns a fresh copy of the default per-asset balances.
func StartingBalances() map[string]int64 {
	out := make(map[string]int64, len(startingBalances))
	for k, v := range startingBalances {
		out[k] = v
	}

	return out
}

// Symbols lists the supported symbols. Order is unspecified.
func Symbols() []string {
	out := make([]string, 0, len(registry))
	for s := range registry {
		out = append(out, s)
	}

	return out
}
