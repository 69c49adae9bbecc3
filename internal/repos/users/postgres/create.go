package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rollhouse/ledgerd/internal/repos/users"
)

func (r *usersRepo) Create(tx *sql.Tx, userID int64, balances map[string]int64) error {
	_, err := tx.Exec(`
		INSERT INTO users (id)
		VALUES ($1)
	`, userID)
	if err != nil {
		if isPgErr(err, pgUniqueViolation) {
			return users.ErrUserExists
		}

		return fmt.Errorf("insert user: %w", err)
	}

	for asset, bal := range balances {
		_, err = tx.Exec(`
			INSERT INTO balances (user_id, asset, amount)
			VALUES ($1, $2, $3)
		`, userID, asset, bal)
		if err != nil {
			return fmt.Errorf("seed balance %s: %w", asset, err)
		}
	}

	return nil
}

func (r *usersRepo) Exists(ctx context.Context, userID int64) error {
	var exists bool

	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}

	if !exists {
		return users.ErrUserNotFound
	}

	return nil
}
