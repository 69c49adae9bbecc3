package deposits

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rollhouse/ledgerd/internal/repos/deposits"
)

var _ deposits.Deposits = (*depositsRepo)(nil)

type depositsRepo struct{ db *sql.DB }

func New(db *sql.DB) *depositsRepo {
	return &depositsRepo{db: db}
}

func (r *depositsRepo) Insert(tx *sql.Tx, d deposits.Deposit) error {
	_, err := tx.Exec(`
		INSERT INTO deposits (tx_id, user_id, asset, amount, address, confirmations)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.TxID, d.UserID, d.Asset, d.Amount, d.Address, d.Confirmations)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return deposits.ErrDuplicateDeposit
		}

		return fmt.Errorf("insert deposit: %w", err)
	}

	return nil
}

func (r *depositsRepo) Exists(ctx context.Context, txID string) (bool, error) {
	var exists bool

	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM deposits WHERE tx_id = $1)
	`, txID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check deposit exists: %w", err)
	}

	return exists, nil
}
