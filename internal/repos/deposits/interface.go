package deposits

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrDuplicateDeposit means a row for the tx id already exists, i.e. the
// credit for it has already been applied.
var ErrDuplicateDeposit = errors.New("duplicate deposit")

// Deposit is the durable record of one credited blockchain deposit. The
// tx id is unique across the log; the row doubles as the idempotency
// marker that protects against webhook redelivery.
type Deposit struct {
	TxID          string
	UserID        int64
	Asset         string
	Amount        int64 // minor units
	Address       string
	Confirmations int
	RecordedAt    time.Time
}

type Deposits interface {
	// Insert records the deposit. Returns ErrDuplicateDeposit if a row
	// for the tx id exists.
	Insert(tx *sql.Tx, d Deposit) error

	Exists(ctx context.Context, txID string) (bool, error)
}
