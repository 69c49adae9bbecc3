// Package casino is the command layer behind the chat front end:
// Start, Balance, Roll, Deposit and Withdraw.
package casino

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rollhouse/ledgerd/internal/assets"
	"github.com/rollhouse/ledgerd/internal/dice"
	"github.com/rollhouse/ledgerd/internal/infra/metrics"
	"github.com/rollhouse/ledgerd/internal/infra/pgutils"
	"github.com/rollhouse/ledgerd/internal/repos/users"
	"github.com/rollhouse/ledgerd/internal/services/deposits"
	"github.com/rollhouse/ledgerd/internal/services/withdrawals"
)

type Service struct {
	db          *sql.DB
	users       users.Users
	roller      *dice.Roller
	issuer      *deposits.Issuer
	withdrawals *withdrawals.Processor
	metrics     *metrics.Metrics
}

func New(
	db *sql.DB,
	usersRepo users.Users,
	roller *dice.Roller,
	issuer *deposits.Issuer,
	processor *withdrawals.Processor,
	m *metrics.Metrics,
) *Service {
	return &Service{
		db:          db,
		users:       usersRepo,
		roller:      roller,
		issuer:      issuer,
		withdrawals: processor,
		metrics:     m,
	}
}

// RollResult is a settled bet plus the balance it left behind.
type RollResult struct {
	dice.Result
	Asset      string
	NewBalance int64
}

// Start registers the user with the default starting balances.
// Calling it again for the same id is a no-op; created reports whether
// this call did the registration.
func (s *Service) Start(ctx context.Context, userID int64) (bool, error) {
	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.users.Create(tx, userID, assets.StartingBalances())
	})
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			return false, nil
		}

		return false, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "user_id", userID)

	return true, nil
}

// Balances returns the user's per-asset balances in minor units.
func (s *Service) Balances(ctx context.Context, userID int64) (map[string]int64, error) {
	balances, err := s.users.GetBalances(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get balances: %w", err)
	}

	return balances, nil
}

// Roll places a bet: the (user, asset) balance row stays locked from
// the funds check through settlement, so concurrent rolls on the same
// balance serialize and none can spend funds it doesn't have.
func (s *Service) Roll(ctx context.Context, userID int64, symbol string, bet int64) (RollResult, error) {
	symbol = assets.Canonical(symbol)

	_, err := assets.Lookup(symbol)
	if err != nil {
		return RollResult{}, err
	}

	var out RollResult

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.users.LockAndGetBalance(tx, userID, symbol)
		if err != nil {
			return fmt.Errorf("lock balance: %w", err)
		}

		if balance < bet {
			return users.ErrInsufficientFunds
		}

		res := s.roller.Settle(bet)

		if res.Won {
			err = s.users.IncreaseBalance(tx, userID, symbol, res.Delta)
		} else {
			err = s.users.DecreaseBalance(tx, userID, symbol, -res.Delta)
		}
		if err != nil {
			return fmt.Errorf("apply roll delta: %w", err)
		}

		out = RollResult{Result: res, Asset: symbol, NewBalance: balance + res.Delta}

		return nil
	})
	if err != nil {
		return RollResult{}, err
	}

	outcome := "lose"
	if out.Won {
		outcome = "win"
	}
	s.metrics.RollsTotal.WithLabelValues(outcome).Inc()

	return out, nil
}

// DepositAddress returns the user's deposit address for the asset,
// issuing one on first request.
func (s *Service) DepositAddress(ctx context.Context, userID int64, symbol string) (string, error) {
	return s.issuer.GetOrIssue(ctx, userID, assets.Canonical(symbol))
}

// Withdraw sends funds out and returns the balance after the debit.
func (s *Service) Withdraw(ctx context.Context, userID int64, symbol string, amt int64, destination string) (int64, error) {
	return s.withdrawals.Process(ctx, userID, symbol, amt, destination)
}
