// Package tatum is a thin client for the wallet provider that issues
// deposit addresses and watches them for incoming transfers.
package tatum

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rollhouse/ledgerd/internal/config"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func New(cfg config.TatumConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Wallet is the provider's response to a wallet request. Account-model
// chains (solana) return a ready address; UTXO/account-abstraction
// chains return an xpub to derive child addresses from.
type Wallet struct {
	Address string `json:"address"`
	Xpub    string `json:"xpub"`
}

func (c *Client) GetWallet(ctx context.Context, chain string) (Wallet, error) {
	var w Wallet

	err := c.getJSON(ctx, fmt.Sprintf("%s/%s/wallet", c.baseURL, chain), &w)
	if err != nil {
		return Wallet{}, fmt.Errorf("get %s wallet: %w", chain, err)
	}

	return w, nil
}

// DeriveAddress derives the child address at the given index from an
// extended public key.
func (c *Client) DeriveAddress(ctx context.Context, chain, xpub string, index int) (string, error) {
	var out struct {
		Address string `json:"address"`
	}

	u := fmt.Sprintf("%s/%s/address/%s/%d", c.baseURL, chain, url.PathEscape(xpub), index)

	err := c.getJSON(ctx, u, &out)
	if err != nil {
		return "", fmt.Errorf("derive %s address: %w", chain, err)
	}

	if out.Address == "" {
		return "", fmt.Errorf("derive %s address: empty address in response", chain)
	}

	return out.Address, nil
}

// Subscribe registers a webhook notification for transfers to the
// address. Callers treat failure as a degraded mode, not a hard error.
func (c *Client) Subscribe(ctx context.Context, address, chain, callbackURL string) error {
	body, err := json.Marshal(map[string]any{
		"type": "ADDRESS_TRANSACTION",
		"attr": map[string]string{
			"address": address,
			"chain":   chain,
			"url":     callbackURL,
		},
	})
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/subscription", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("subscribe: http %d", res.StatusCode)
	}

	return nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("http %d", res.StatusCode)
	}

	err = json.NewDecoder(res.Body).Decode(dst)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
