package deposits

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Payload is the deposit webhook body. Field order matters: the
// canonical serialization the signature covers is the compact JSON of
// this struct, keys in the order declared here (alphabetical).
type Payload struct {
	Address       string      `json:"address"`
	Amount        json.Number `json:"amount"`
	Confirmations int         `json:"confirmations"`
	Currency      string      `json:"currency"`
	TxID          string      `json:"txId"`
}

// SignPayload returns the hex HMAC-SHA256 of the canonical payload
// serialization under the shared secret.
func SignPayload(secret []byte, p Payload) (string, error) {
	canonical, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(canonical)

	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifySignature checks a header-supplied hex signature against the
// payload in constant time.
func VerifySignature(secret []byte, p Payload, signature string) bool {
	if signature == "" {
		return false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	canonical, err := json.Marshal(p)
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(canonical)

	return hmac.Equal(mac.Sum(nil), provided)
}
