package deposits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rollhouse/ledgerd/internal/assets"
	"github.com/rollhouse/ledgerd/internal/clients/tatum"
	"github.com/rollhouse/ledgerd/internal/repos/users"
)

// ErrIssuance means the wallet provider or the address persistence
// failed; the caller should retry later.
var ErrIssuance = errors.New("address issuance failed")

// AddressProvider is the external wallet collaborator.
type AddressProvider interface {
	GetWallet(ctx context.Context, chain string) (tatum.Wallet, error)
	DeriveAddress(ctx context.Context, chain, xpub string, index int) (string, error)
	Subscribe(ctx context.Context, address, chain, callbackURL string) error
}

// Issuer hands out one deposit address per (user, asset), issuing it
// through the provider on first request and serving the cached address
// afterwards. An address is never returned unless it is durably stored,
// otherwise a later deposit to it could not be matched to the user.
type Issuer struct {
	users       users.Users
	provider    AddressProvider
	callbackURL string
}

func NewIssuer(usersRepo users.Users, provider AddressProvider, callbackURL string) *Issuer {
	return &Issuer{users: usersRepo, provider: provider, callbackURL: callbackURL}
}

func (i *Issuer) GetOrIssue(ctx context.Context, userID int64, symbol string) (string, error) {
	addr, err := i.users.GetDepositAddress(ctx, userID, symbol)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, users.ErrAddressNotFound) {
		return "", fmt.Errorf("read cached address: %w", err)
	}

	d, err := assets.Lookup(symbol)
	if err != nil {
		return "", err
	}

	err = i.users.Exists(ctx, userID)
	if err != nil {
		return "", err
	}

	// All provider calls happen before the persistence step; nothing
	// holds a ledger lock while we wait on the network.
	wallet, err := i.provider.GetWallet(ctx, d.Chain)
	if err != nil {
		return "", fmt.Errorf("%w: get %s wallet: %w", ErrIssuance, d.Chain, err)
	}

	address := wallet.Address
	if d.XpubDerived {
		if wallet.Xpub == "" {
			return "", fmt.Errorf("%w: no xpub in %s wallet response", ErrIssuance, d.Chain)
		}

		address, err = i.provider.DeriveAddress(ctx, d.Chain, wallet.Xpub, 0)
		if err != nil {
			return "", fmt.Errorf("%w: derive %s address: %w", ErrIssuance, d.Chain, err)
		}
	}

	if address == "" {
		return "", fmt.Errorf("%w: no address in %s wallet response", ErrIssuance, d.Chain)
	}

	// Best-effort: without the watcher subscription the address still
	// works, deposits just won't be noticed until it is repaired.
	if i.callbackURL != "" {
		serr := i.provider.Subscribe(ctx, address, d.Chain, i.callbackURL)
		if serr != nil {
			slog.Warn("deposit watch subscription failed",
				"user_id", userID,
				"asset", symbol,
				"address", address,
				"error", serr,
			)
		}
	}

	err = i.users.SetDepositAddress(ctx, userID, symbol, address)
	if err != nil {
		return "", fmt.Errorf("%w: persist address: %w", ErrIssuance, err)
	}

	// A concurrent issuance may have won the insert; whatever is stored
	// is the account's address for good.
	stored, err := i.users.GetDepositAddress(ctx, userID, symbol)
	if err != nil {
		return "", fmt.Errorf("%w: reread address: %w", ErrIssuance, err)
	}

	return stored, nil
}
