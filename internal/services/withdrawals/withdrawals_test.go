package withdrawals

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rollhouse/ledgerd/internal/assets"
	"github.com/rollhouse/ledgerd/internal/infra/metrics"
	"github.com/rollhouse/ledgerd/internal/infra/pgtestutil"
	"github.com/rollhouse/ledgerd/internal/repos/users"
	userspg "github.com/rollhouse/ledgerd/internal/repos/users/postgres"
)

type fakeTransfer struct {
	err   error
	calls int
}

func (f *fakeTransfer) Transfer(_ context.Context, _ string, _ int64, _ string) error {
	f.calls++
	return f.err
}

func newProcessorDB(t *testing.T, userID int64, asset string, balance int64) (*Processor, *fakeTransfer, users.Users) {
	t.Helper()

	db, cleanup := pgtestutil.NewTestDB(t)
	t.Cleanup(cleanup)

	seedUser(t, db, userID, asset, balance)

	usersRepo := userspg.New(db)
	transfer := &fakeTransfer{}

	return New(db, usersRepo, transfer, metrics.New()), transfer, usersRepo
}

func seedUser(t *testing.T, db *sql.DB, userID int64, asset string, balance int64) {
	t.Helper()

	_, err := db.Exec(`INSERT INTO users (id) VALUES ($1)`, userID)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	_, err = db.Exec(`INSERT INTO balances (user_id, asset, amount) VALUES ($1, $2, $3)`,
		userID, asset, balance)
	if err != nil {
		t.Fatalf("seed balance: %v", err)
	}
}

func TestProcessor_Process(t *testing.T) {
	t.Parallel()

	proc, transfer, usersRepo := newProcessorDB(t, 31, "SOL", 1_000)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	newBalance, err := proc.Process(ctx, 31, "sol", 400, "So1Dest")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if newBalance != 600 {
		t.Fatalf("new balance: want 600, got %d", newBalance)
	}
	if transfer.calls != 1 {
		t.Fatalf("want 1 transfer call, got %d", transfer.calls)
	}

	balances, err := usersRepo.GetBalances(ctx, 31)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}
	if balances["SOL"] != 600 {
		t.Fatalf("stored balance: want 600, got %d", balances["SOL"])
	}
}

func TestProcessor_InsufficientFundsSkipsTransfer(t *testing.T) {
	t.Parallel()

	proc, transfer, _ := newProcessorDB(t, 32, "SOL", 100)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, err := proc.Process(ctx, 32, "SOL", 200, "So1Dest")
	if !errors.Is(err, users.ErrInsufficientFunds) {
		t.Fatalf("want ErrInsufficientFunds, got %v", err)
	}

	// The pre-check fires before funds ever leave the system.
	if transfer.calls != 0 {
		t.Fatalf("transfer attempted despite insufficient funds")
	}
}

func TestProcessor_FailedTransferLeavesBalance(t *testing.T) {
	t.Parallel()

	proc, transfer, usersRepo := newProcessorDB(t, 33, "BTC", 500)
	transfer.err = errors.New("broadcast failed")

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, err := proc.Process(ctx, 33, "BTC", 300, "bc1Dest")
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("want ErrTransferFailed, got %v", err)
	}

	balances, err := usersRepo.GetBalances(ctx, 33)
	if err != nil {
		t.Fatalf("get balances: %v", err)
	}
	if balances["BTC"] != 500 {
		t.Fatalf("failed transfer debited balance: %d", balances["BTC"])
	}
}

func TestProcessor_UnsupportedAsset(t *testing.T) {
	t.Parallel()

	proc, transfer, _ := newProcessorDB(t, 34, "SOL", 100)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, err := proc.Process(ctx, 34, "DOGE", 50, "dest")
	if !errors.Is(err, assets.ErrUnsupportedAsset) {
		t.Fatalf("want ErrUnsupportedAsset, got %v", err)
	}
	if transfer.calls != 0 {
		t.Fatalf("transfer attempted for unsupported asset")
	}
}

func TestProcessor_UnknownUser(t *testing.T) {
	t.Parallel()

	proc, _, _ := newProcessorDB(t, 35, "SOL", 100)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, err := proc.Process(ctx, 999_999, "SOL", 50, "dest")
	if !errors.Is(err, users.ErrUserNotFound) {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}
