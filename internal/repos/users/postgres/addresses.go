package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rollhouse/ledgerd/internal/repos/users"
)

func (r *usersRepo) GetDepositAddress(ctx context.Context, userID int64, asset string) (string, error) {
	var address string

	err := r.db.QueryRowContext(ctx, `
		SELECT address
		FROM deposit_addresses
		WHERE user_id = $1 AND asset = $2
	`, userID, asset).Scan(&address)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", users.ErrAddressNotFound
		}

		return "", fmt.Errorf("get deposit address: %w", err)
	}

	return address, nil
}

func (r *usersRepo) SetDepositAddress(ctx context.Context, userID int64, asset, address string) error {
	// DO NOTHING on (user_id, asset): the first issued address sticks
	// for the lifetime of the account.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deposit_addresses (user_id, asset, address)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, asset) DO NOTHING
	`, userID, asset, address)
	if err != nil {
		if isPgErr(err, pgFKViolation) {
			return users.ErrUserNotFound
		}

		return fmt.Errorf("set deposit address: %w", err)
	}

	return nil
}

func (r *usersRepo) FindUserByDepositAddress(ctx context.Context, asset, address string) (int64, error) {
	var userID int64

	err := r.db.QueryRowContext(ctx, `
		SELECT user_id
		FROM deposit_addresses
		WHERE asset = $1 AND address = $2
	`, asset, address).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("find user by address: %w", err)
	}

	return userID, nil
}
