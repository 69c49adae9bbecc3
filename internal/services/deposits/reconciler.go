package deposits

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
	"github.com/rollhouse/ledgerd/internal/notify"
	depositrepo "github.com/rollhouse/ledgerd/internal/repos/deposits"
	"github.com/rollhouse/ledgerd/internal/repos/users"
)

var (
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrInvalidPayload      = errors.New("invalid payload")
)

type Status string

const (
	StatusCredited  Status = "credited"
	StatusPending   Status = "pending"
	StatusDuplicate Status = "duplicate"
)

// Result of reconciling one deposit notification.
type Result struct {
	Status Status
	UserID int64
	Asset  string
	Amount int64
}

// Reconciler turns at-least-once, increasing-confirmation deposit
// notifications into exactly-once balance credits. Every rejection
// happens before any mutation; the credit and the tx-id log row commit
// in one database transaction.
type Reconciler struct {
	db       *sql.DB
	users    users.Users
	deposits depositrepo.Deposits
	queue    notify.Queue
	metrics  *metrics.Metrics
	secret   []byte
}

func NewReconciler(
	db *sql.DB,
	usersRepo users.Users,
	depositsRepo depositrepo.Deposits,
	queue notify.Queue,
	m *metrics.Metrics,
	secret []byte,
) *Reconciler {
	return &Reconciler{
		db:       db,
		users:    usersRepo,
		deposits: depositsRepo,
		queue:    queue,
		metrics:  m,
		secret:   secret,
	}
}

// Process runs the full gate sequence for one notification:
// verify signature, resolve asset, confirmation threshold, duplicate
// check, resolve user by deposit address, credit + record, notify.
func (r *Reconciler) Process(ctx context.Context, p Payload, signature string) (Result, error) {
	if !VerifySignature(r.secret, p, signature) {
		r.metrics.DepositsRejected.WithLabelValues("signature").Inc()
		return Result{}, ErrInvalidSignature
	}

	if p.TxID == "" || p.Address == "" {
		r.metrics.DepositsRejected.WithLabelValues("malformed").Inc()
		return Result{}, fmt.Errorf("%w: txId and address required", ErrInvalidPayload)
	}

	symbol, err := assets.SymbolForChain(p.Currency)
	if err != nil {
		r.metrics.DepositsRejected.WithLabelValues("currency").Inc()
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, p.Currency)
	}

	amt, err := amount.ParseMinor(p.Amount.String())
	if err != nil {
		r.metrics.DepositsRejected.WithLabelValues("amount").Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	// Below the confirmation threshold nothing is mutated; the source
	// re-notifies as confirmations grow.
	if p.Confirmations < assets.ConfirmationsRequired(symbol) {
		r.metrics.DepositsPending.Inc()
		slog.Debug("deposit below confirmation threshold",
			"tx_id", p.TxID,
			"asset", symbol,
			"confirmations", p.Confirmations,
		)

		return Result{Status: StatusPending, Asset: symbol, Amount: amt}, nil
	}

	processed, err := r.deposits.Exists(ctx, p.TxID)
	if err != nil {
		return Result{}, fmt.Errorf("check processed: %w", err)
	}
	if processed {
		r.metrics.DepositsDuplicate.Inc()
		return Result{Status: StatusDuplicate, Asset: symbol, Amount: amt}, nil
	}

	userID, err := r.users.FindUserByDepositAddress(ctx, symbol, p.Address)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			// An address we never issued: a mapping bug, not a benign miss.
			r.metrics.DepositsRejected.WithLabelValues("unknown_address").Inc()
			slog.Error("deposit for unknown address",
				"tx_id", p.TxID,
				"asset", symbol,
				"address", p.Address,
			)
		}

		return Result{}, fmt.Errorf("resolve user: %w", err)
	}

	// Record first, credit second, one transaction: the tx_id primary
	// key is the commit point that makes redelivery a no-op.
	err = pgutils.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		err := r.deposits.Insert(tx, depositrepo.Deposit{
			TxID:          p.TxID,
			UserID:        userID,
			Asset:         symbol,
			Amount:        amt,
			Address:       p.Address,
			Confirmations: p.Confirmations,
		})
		if err != nil {
			return fmt.Errorf("record deposit: %w", err)
		}

		err = r.users.IncreaseBalance(tx, userID, symbol, amt)
		if err != nil {
			return fmt.Errorf("credit balance: %w", err)
		}

		return nil
	})
	if err != nil {
		// Two deliveries can race past the Exists pre-check; the loser
		// hits the unique tx_id constraint here and is a benign no-op.
		if errors.Is(err, depositrepo.ErrDuplicateDeposit) {
			r.metrics.DepositsDuplicate.Inc()
			return Result{Status: StatusDuplicate, UserID: userID, Asset: symbol, Amount: amt}, nil
		}

		return Result{}, fmt.Errorf("credit deposit: %w", err)
	}

	r.metrics.DepositsCredited.WithLabelValues(symbol).Inc()
	slog.Info("deposit credited",
		"tx_id", p.TxID,
		"user_id", userID,
		"asset", symbol,
		"amount", amount.FormatMinor(amt),
	)

	text := fmt.Sprintf("Deposit confirmed: +%s %s", amount.FormatMinor(amt), symbol)

	err = r.queue.Enqueue(ctx, notify.NewJob(userID, text))
	if err != nil {
		// The credit stands; the user just doesn't hear about it.
		slog.Warn("enqueue deposit notification failed", "tx_id", p.TxID, "error", err)
	}

	return Result{Status: StatusCredited, UserID: userID, Asset: symbol, Amount: amt}, nil
}
