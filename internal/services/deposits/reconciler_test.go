package deposits

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rollhouse/ledgerd/internal/infra/metrics"
	"github.com/rollhouse/ledgerd/internal/infra/pgtestutil"
	"github.com/rollhouse/ledgerd/internal/notify"
	depositspg "github.com/rollhouse/ledgerd/internal/repos/deposits/postgres"
	"github.com/rollhouse/ledgerd/internal/repos/users"
	userspg "github.com/rollhouse/ledgerd/internal/repos/users/postgres"
)

var testSecret = []byte("test-webhook-secret")

type reconcilerEnv struct {
	db         *sql.DB
	users      users.Users
	queue      *notify.MemoryQueue
	reconciler *Reconciler
}

func newReconcilerEnv(t *testing.T) *reconcilerEnv {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	usersRepo := userspg.New(db)
	queue := notify.NewMemoryQueue(16)

	return &reconcilerEnv{
		db:    db,
		users: usersRepo,
		queue: queue,
		reconciler: NewReconciler(
			db, usersRepo, depositspg.New(db), queue, metrics.New(), testSecret,
		),
	}
}

// seedUserWithAddress registers a user with a zero balance for the asset
// and binds a deposit address to the pair.
func (e *reconcilerEnv) seedUserWithAddress(t *testing.T, userID int64, asset, address string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = e.users.Create(tx, userID, map[string]int64{asset: 0})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit: %v", err)
	}

	err = e.users.SetDepositAddress(ctx, userID, asset, address)
	if err != nil {
		t.Fatalf("seed address: %v", err)
	}
}

func (e *reconcilerEnv) balance(t *testing.T, userID int64, asset string) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	balances, err := e.users.GetBalances(ctx, userID)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}

	return balances[asset]
}

func (e *reconcilerEnv) processSigned(t *testing.T, p Payload) (Result, error) {
	t.Helper()

	sig, err := SignPayload(testSecret, p)
	if err != nil {
		t.Fatalf("sign payload: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	return e.reconciler.Process(ctx, p, sig)
}

func TestReconciler_CreditsConfirmedDeposit(t *testing.T) {
	t.Parallel()

	env := newReconcilerEnv(t)
	env.seedUserWithAddress(t, 10, "SOL", "So1DepAddr10")

	res, err := env.processSigned(t, Payload{
		Address:       "So1DepAddr10",
		Amount:        json.Number("2.5"),
		Confirmations: 1,
		Currency:      "solana",
		TxID:          "tx_credit_1",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	if res.Status != StatusCredited {
		t.Fatalf("want credited, got %s", res.Status)
	}
	if res.UserID != 10 || res.Asset != "SOL" || res.Amount != 2_5000_0000 {
		t.Fatalf("unexpected result: %+v", res)
	}

	if got := env.balance(t, 10, "SOL"); got != 2_5000_0000 {
		t.Fatalf("balance after credit: want 250000000, got %d", got)
	}

	if env.queue.Len() != 1 {
		t.Fatalf("want 1 enqueued notification, got %d", env.queue.Len())
	}
}

func TestReconciler_RedeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	env := newReconcilerEnv(t)
	env.seedUserWithAddress(t, 11, "SOL", "So1DepAddr11")

	p := Payload{
		Address:       "So1DepAddr11",
		Amount:        json.Number("1"),
		Confirmations: 1,
		Currency:      "solana",
		TxID:          "tx_redelivered",
	}

	res, err := env.processSigned(t, p)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if res.Status != StatusCredited {
		t.Fatalf("first delivery: want credited, got %s", res.Status)
	}

	// The sender redelivers with a higher confirmation count. The tx id
	// log must suppress any second credit.
	p.Confirmations = 9

	res, err = env.processSigned(t, p)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if res.Status != StatusDuplicate {
		t.Fatalf("redelivery: want duplicate, got %s", res.Status)
	}

	if got := env.balance(t, 11, "SOL"); got != 1_0000_0000 {
		t.Fatalf("balance credited more than once: %d", got)
	}
}

func TestReconciler_BelowThresholdThenConfirmed(t *testing.T) {
	t.Parallel()

	env := newReconcilerEnv(t)
	env.seedUserWithAddress(t, 12, "BTC", "bc1DepAddr12")

	p := Payload{
		Address:       "bc1DepAddr12",
		Amount:        json.Number("0.001"),
		Confirmations: 2, // bitcoin requires 6
		Currency:      "bitcoin",
		TxID:          "tx_growing",
	}

	res, err := env.processSigned(t, p)
	if err != nil {
		t.Fatalf("early notification: %v", err)
	}
	if res.Status != StatusPending {
		t.Fatalf("early notification: want pending, got %s", res.Status)
	}
	if got := env.balance(t, 12, "BTC"); got != 0 {
		t.Fatalf("pending notification mutated balance: %d", got)
	}

	// Re-notified once the threshold is reached: credit exactly once.
	p.Confirmations = 6

	res, err = env.processSigned(t, p)
	if err != nil {
		t.Fatalf("confirmed notification: %v", err)
	}
	if res.Status != StatusCredited {
		t.Fatalf("confirmed notification: want credited, got %s", res.Status)
	}

	if got := env.balance(t, 12, "BTC"); got != 100_000 {
		t.Fatalf("balance after confirmed credit: want 100000, got %d", got)
	}
}

func TestReconciler_RejectsBeforeMutation(t *testing.T) {
	t.Parallel()

	env := newReconcilerEnv(t)
	env.seedUserWithAddress(t, 13, "SOL", "So1DepAddr13")

	valid := Payload{
		Address:       "So1DepAddr13",
		Amount:        json.Number("1"),
		Confirmations: 1,
		Currency:      "solana",
		TxID:          "tx_rejects",
	}

	tests := []struct {
		name    string
		payload func() Payload
		sign    bool
		wantErr error
	}{
		{
			name:    "invalid_signature",
			payload: func() Payload { return valid },
			sign:    false,
			wantErr: ErrInvalidSignature,
		},
		{
			name: "unsupported_currency",
			payload: func() Payload {
				p := valid
				p.Currency = "dogecoin"
				return p
			},
			sign:    true,
			wantErr: ErrUnsupportedCurrency,
		},
		{
			name: "missing_tx_id",
			payload: func() Payload {
				p := valid
				p.TxID = ""
				return p
			},
			sign:    true,
			wantErr: ErrInvalidPayload,
		},
		{
			name: "non_positive_amount",
			payload: func() Payload {
				p := valid
				p.Amount = json.Number("0")
				return p
			},
			sign:    true,
			wantErr: ErrInvalidPayload,
		},
		{
			name: "unknown_address",
			payload: func() Payload {
				p := valid
				p.Address = "neverIssuedAddr"
				return p
			},
			sign:    true,
			wantErr: users.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			p := tt.payload()

			var (
				res Result
				err error
			)

			if tt.sign {
				res, err = env.processSigned(t, p)
			} else {
				ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
				defer cancel()

				res, err = env.reconciler.Process(ctx, p, "deadbeef")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v (res %+v)", tt.wantErr, err, res)
			}
		})
	}

	// None of the rejections may have touched the ledger.
	if got := env.balance(t, 13, "SOL"); got != 0 {
		t.Fatalf("rejected notifications mutated balance: %d", got)
	}
}
