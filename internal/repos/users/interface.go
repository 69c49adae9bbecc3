package users

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAddressNotFound   = errors.New("deposit address not found")
)

// Users is the durable per-user ledger state: balances keyed by asset
// and deposit addresses keyed by asset.
//
// Mutations take a *sql.Tx so callers can combine them with other writes
// in one database transaction; plain reads take a context.
type Users interface {
	// Create registers a user with the given starting balances.
	// Returns ErrUserExists if the id is already taken.
	Create(tx *sql.Tx, userID int64, balances map[string]int64) error

	Exists(ctx context.Context, userID int64) error

	// GetBalances returns all per-asset balances in minor units.
	GetBalances(ctx context.Context, userID int64) (map[string]int64, error)

	// LockAndGetBalance row-locks the (user, asset) balance for the
	// duration of tx and returns its current value. Concurrent writers
	// to the same pair serialize on this lock.
	LockAndGetBalance(tx *sql.Tx, userID int64, asset string) (int64, error)

	IncreaseBalance(tx *sql.Tx, userID int64, asset string, amount int64) error

	// DecreaseBalance subtracts amount, guarded so the balance can never
	// go negative. Returns ErrInsufficientFunds if it would.
	DecreaseBalance(tx *sql.Tx, userID int64, asset string, amount int64) error

	// GetDepositAddress returns the cached address for (user, asset),
	// or ErrAddressNotFound if none was issued yet.
	GetDepositAddress(ctx context.Context, userID int64, asset string) (string, error)

	// SetDepositAddress persists an issued address. A no-op if the pair
	// already has one: once issued, addresses are never replaced.
	SetDepositAddress(ctx context.Context, userID int64, asset, address string) error

	// FindUserByDepositAddress resolves the owner of a deposit address.
	FindUserByDepositAddress(ctx context.Context, asset, address string) (int64, error)
}
