package deposits

import (
	"encoding/json"
	"testing"
)

func samplePayload() Payload {
	return Payload{
		Address:       "So1DepositAddr",
		Amount:        json.Number("2.5"),
		Confirmations: 3,
		Currency:      "solana",
		TxID:          "tx_abc",
	}
}

func TestSignPayload_Roundtrip(t *testing.T) {
	t.Parallel()

	secret := []byte("shared-secret")
	p := samplePayload()

	sig, err := SignPayload(secret, p)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if !VerifySignature(secret, p, sig) {
		t.Fatalf("signature did not verify against the payload it was computed over")
	}
}

func TestVerifySignature_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("shared-secret")
	p := samplePayload()

	sig, err := SignPayload(secret, p)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name    string
		payload Payload
		sig     string
		secret  []byte
	}{
		{
			name:    "missing_signature",
			payload: p,
			sig:     "",
			secret:  secret,
		},
		{
			name:    "non_hex_signature",
			payload: p,
			sig:     "not-hex!",
			secret:  secret,
		},
		{
			name:    "wrong_secret",
			payload: p,
			sig:     sig,
			secret:  []byte("other-secret"),
		},
		{
			name: "tampered_amount",
			payload: func() Payload {
				q := p
				q.Amount = json.Number("25")
				return q
			}(),
			sig:    sig,
			secret: secret,
		},
		{
			name: "tampered_address",
			payload: func() Payload {
				q := p
				q.Address = "attackerAddr"
				return q
			}(),
			sig:    sig,
			secret: secret,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if VerifySignature(tt.secret, tt.payload, tt.sig) {
				t.Fatalf("signature verified when it must not")
			}
		})
	}
}

// The canonical form is the compact JSON with keys in alphabetical
// order; a sender building that exact string must produce a signature
// we accept.
func TestSignPayload_CanonicalForm(t *testing.T) {
	t.Parallel()

	p := samplePayload()

	canonical, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"address":"So1DepositAddr","amount":2.5,"confirmations":3,"currency":"solana","txId":"tx_abc"}`
	if string(canonical) != want {
		t.Fatalf("canonical form mismatch:\n got: %s\nwant: %s", canonical, want)
	}
}
