package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rollhouse/ledgerd/internal/repos/users"
)

func (r *usersRepo) GetBalances(ctx context.Context, userID int64) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT asset, amount
		FROM balances
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query balances: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)

	for rows.Next() {
		var (
			asset  string
			amount int64
		)

		err = rows.Scan(&asset, &amount)
		if err != nil {
			return nil, fmt.Errorf("scan balance: %w", err)
		}

		out[asset] = amount
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate balances: %w", err)
	}

	// Users are always created together with their balance rows, so no
	// rows means no user.
	if len(out) == 0 {
		err = r.Exists(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (r *usersRepo) LockAndGetBalance(tx *sql.Tx, userID int64, asset string) (int64, error) {
	var balance int64

	err := tx.QueryRow(`
		SELECT amount
		FROM balances
		WHERE user_id = $1 AND asset = $2
		FOR UPDATE
	`, userID, asset).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return balance, nil
}

func (r *usersRepo) IncreaseBalance(tx *sql.Tx, userID int64, asset string, amount int64) error {
	_, err := tx.Exec(`
		INSERT INTO balances (user_id, asset, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, asset)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount
	`, userID, asset, amount)
	if err != nil {
		if isPgErr(err, pgFKViolation) {
			return users.ErrUserNotFound
		}

		return fmt.Errorf("increase balance: %w", err)
	}

	return nil
}

func (r *usersRepo) DecreaseBalance(tx *sql.Tx, userID int64, asset string, amount int64) error {
	res, err := tx.Exec(`
		UPDATE balances
		SET amount = amount - $3
		WHERE user_id = $1
		  AND asset = $2
		  AND amount >= $3
	`, userID, asset, amount)
	if err != nil {
		return fmt.Errorf("decrease balance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrInsufficientFunds
	}

	return nil
}
