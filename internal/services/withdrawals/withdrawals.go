// Package withdrawals validates and executes outbound transfers. The
// balance debit happens strictly after the transfer reports success, so
// a failed transfer never leaves a partial debit behind.
package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rollhouse/ledgerd/internal/amount"
	"github.com/rollhouse/ledgerd/internal/assets"
	"github.com/rollhouse/ledgerd/internal/infra/metrics"
	"github.com/rollhouse/ledgerd/internal/infra/pgutils"
	"github.com/rollhouse/ledgerd/internal/repos/users"
)

// ErrTransferFailed wraps any error from the outbound transfer
// collaborator; the balance is untouched when it is returned.
var ErrTransferFailed = errors.New("transfer failed")

// Transfer moves funds out on chain.
type Transfer interface {
	Transfer(ctx context.Context, chain string, amountMinor int64, address string) error
}

// SimulatedTransfer logs the transfer instead of broadcasting it.
// Real custody wiring is out of scope on testnet.
type SimulatedTransfer struct{}

func (SimulatedTransfer) Transfer(_ context.Context, chain string, amountMinor int64, address string) error {
	slog.Info("simulated withdrawal transfer",
		"chain", chain,
		"amount", amount.FormatMinor(amountMinor),
		"address", address,
	)

	return nil
}

type Processor struct {
	db       *sql.DB
	users    users.Users
	transfer Transfer
	metrics  *metrics.Metrics
}

func New(db *sql.DB, usersRepo users.Users, transfer Transfer, m *metrics.Metrics) *Processor {
	return &Processor{db: db, users: usersRepo, transfer: transfer, metrics: m}
}

// Process withdraws amt (minor units) of symbol to the destination
// address and returns the balance after the debit.
func (p *Processor) Process(ctx context.Context, userID int64, symbol string, amt int64, destination string) (int64, error) {
	symbol = assets.Canonical(symbol)

	d, err := assets.Lookup(symbol)
	if err != nil {
		return 0, err
	}

	balances, err := p.users.GetBalances(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("read balances: %w", err)
	}

	if balances[symbol] < amt {
		return 0, users.ErrInsufficientFunds
	}

	err = p.transfer.Transfer(ctx, d.Chain, amt, destination)
	if err != nil {
		p.metrics.WithdrawalsTotal.WithLabelValues("transfer_failed").Inc()
		return 0, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	var newBalance int64

	err = pgutils.WithTx(ctx, p.db, func(tx *sql.Tx) error {
		balance, err := p.users.LockAndGetBalance(tx, userID, symbol)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}

		// Re-checked under the lock: a concurrent bet may have spent
		// the funds between the pre-check and here.
		if balance < amt {
			return users.ErrInsufficientFunds
		}

		err = p.users.DecreaseBalance(tx, userID, symbol, amt)
		if err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		newBalance = balance - amt

		return nil
	})
	if err != nil {
		p.metrics.WithdrawalsTotal.WithLabelValues("debit_failed").Inc()
		return 0, err
	}

	p.metrics.WithdrawalsTotal.WithLabelValues("ok").Inc()
	slog.Info("withdrawal processed",
		"user_id", userID,
		"asset", symbol,
		"amount", amount.FormatMinor(amt),
		"destination", destination,
	)

	return newBalance, nil
}
