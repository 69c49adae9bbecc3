package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rollhouse/ledgerd/internal/api"
	"github.com/rollhouse/ledgerd/internal/clients/tatum"
	"github.com/rollhouse/ledgerd/internal/clients/telegram"
	"github.com/rollhouse/ledgerd/internal/dice"
	"github.com/rollhouse/ledgerd/internal/infra/logging"
	"github.com/rollhouse/ledgerd/internal/infra/metrics"
	"github.com/rollhouse/ledgerd/internal/infra/pgutils"
	"github.com/rollhouse/ledgerd/internal/notify"
	depositspg "github.com/rollhouse/ledgerd/internal/repos/deposits/postgres"
	userspg "github.com/rollhouse/ledgerd/internal/repos/users/postgres"
	"github.com/rollhouse/ledgerd/internal/services/casino"
	"github.com/rollhouse/ledgerd/internal/services/deposits"
	"github.com/rollhouse/ledgerd/internal/services/withdrawals"
	"github.com/rollhouse/ledgerd/pkg/envconf"
	"github.com/rollhouse/ledgerd/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	err = redisClient.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}

	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Close redis client")

		cerr := redisClient.Close()
		if cerr != nil {
			return fmt.Errorf("close redis: %w", cerr)
		}

		return nil
	})

	m := metrics.New()

	// --- Repositories ---
	usersRepo := userspg.New(dbConns)
	depositsRepo := depositspg.New(dbConns)

	// --- Notifications ---
	queue := notify.NewRedisQueue(redisClient)
	worker := notify.NewWorker(queue, telegram.New(cfg.Telegram), m.NotifyFailures)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	go func() {
		defer close(workerDone)
		worker.Run(workerCtx)
	}()

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Stop notification worker")
		stopWorker()

		select {
		case <-workerDone:
			return nil
		case <-c.Done():
			return fmt.Errorf("stop notify worker: %w", c.Err())
		}
	})

	// --- Services ---
	issuer := deposits.NewIssuer(usersRepo, tatum.New(cfg.Tatum), cfg.CallbackURL)
	reconciler := deposits.NewReconciler(dbConns, usersRepo, depositsRepo, queue, m, []byte(cfg.WebhookSecret))
	processor := withdrawals.New(dbConns, usersRepo, withdrawals.SimulatedTransfer{}, m)
	casinoSrv := casino.New(dbConns, usersRepo, dice.New(), issuer, processor, m)

	// --- HTTP server ---
	srv := api.NewServer(cfg.Port, api.NewRouter(casinoSrv, reconciler, m.Handler()))

	// Register HTTP server graceful shutdown
	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	// Run server
	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	// --- Wait until either context cancels or server errors out ---
	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
