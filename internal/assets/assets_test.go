package assets

import (
	"errors"
	"testing"
)

func TestLookup_Canonicalizes(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"btc", "BTC", " btc ", "Btc"} {
		d, err := Lookup(raw)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", raw, err)
		}
		if d.Symbol != "BTC" || d.Chain != "bitcoin" {
			t.Fatalf("Lookup(%q) = %+v", raw, d)
		}
	}
}

func TestLookup_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := Lookup("DOGE")
	if !errors.Is(err, ErrUnsupportedAsset) {
		t.Fatalf("want ErrUnsupportedAsset, got %v", err)
	}
}

func TestConfirmationsRequired(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   int
	}{
		{"BTC", 6},
		{"LTC", 6},
		{"ETH", 12},
		{"SOL", 1},
		{"XYZ", 1}, // unknown defaults to 1
	}

	for _, tt := range tests {
		got := ConfirmationsRequired(tt.symbol)
		if got != tt.want {
			t.Errorf("ConfirmationsRequired(%q): want %d, got %d", tt.symbol, tt.want, got)
		}
	}
}

func TestSymbolForChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		chain   string
		want    string
		wantErr bool
	}{
		{"bitcoin", "BTC", false},
		{"BITCOIN", "BTC", false},
		{"Solana", "SOL", false},
		{"ethereum", "ETH", false},
		{"dogecoin", "", true},
	}

	for _, tt := range tests {
		got, err := SymbolForChain(tt.chain)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedAsset) {
				t.Errorf("SymbolForChain(%q): want ErrUnsupportedAsset, got %v", tt.chain, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SymbolForChain(%q): %v", tt.chain, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SymbolForChain(%q): want %s, got %s", tt.chain, tt.want, got)
		}
	}
}

func TestStartingBalances_Copy(t *testing.T) {
	t.Parallel()

	a := StartingBalances()
	a["BTC"] = 0

	b := StartingBalances()
	if b["BTC"] != 10_0000 {
		t.Fatalf("StartingBalances not copied: %d", b["BTC"])
	}
}
