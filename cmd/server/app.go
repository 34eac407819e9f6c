package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/phrazzld/account-api/internal/config"
	"github.com/phrazzld/account-api/internal/events"
	"github.com/phrazzld/account-api/internal/platform/kafka"
	"github.com/phrazzld/account-api/internal/platform/lock"
	"github.com/phrazzld/account-api/internal/platform/memory"
	"github.com/phrazzld/account-api/internal/platform/postgres"
	"github.com/phrazzld/account-api/internal/platform/rabbitmq"
	"github.com/phrazzld/account-api/internal/service/account"
	"github.com/phrazzld/account-api/internal/service/transaction"
	"github.com/phrazzld/account-api/internal/store"
	goredislib "github.com/redis/go-redis/v9"
)

// publisher is an event handler that forwards events to a broker and owns
// a connection that must be closed on shutdown.
type publisher interface {
	events.EventHandler
	io.Closer
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// External connections, nil when the configured driver does not need them
	db          *sql.DB
	redisClient *goredislib.Client
	publisher   publisher

	// Stores
	userStore        store.UserStore
	accountStore     store.AccountStore
	transactionStore store.TransactionStore
	txRunner         store.TxRunner

	locker       lock.Locker
	eventEmitter events.EventEmitter

	// Services
	transactionService transaction.Service
	accountService     account.Service
}

// newApplication creates a new application instance with all dependencies
// initialized. On error every connection opened so far is closed again.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (app *application, err error) {
	app = &application{
		config: cfg,
		logger: logger,
	}
	defer func() {
		if err != nil {
			app.cleanup()
			app = nil
		}
	}()

	if err = app.setupStores(ctx); err != nil {
		return app, err
	}
	if err = app.setupLocker(ctx); err != nil {
		return app, err
	}
	if err = app.setupEvents(); err != nil {
		return app, err
	}

	app.transactionService = transaction.NewService(
		app.userStore,
		app.accountStore,
		app.transactionStore,
		app.txRunner,
		app.locker,
		app.eventEmitter,
		transaction.Config{
			CancelWindow:      cfg.Transaction.CancelWindow,
			MaxBalanceRetries: cfg.Transaction.MaxBalanceRetries,
		},
		logger,
	)
	app.accountService = account.NewService(app.userStore, app.accountStore, app.locker, logger)

	logger.Info("application initialized")
	return app, nil
}

// setupStores opens the configured storage backend.
func (app *application) setupStores(ctx context.Context) error {
	logger := app.logger

	switch app.config.Database.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, app.config.Database.URL, app.config.Database.MaxOpenConns)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		app.db = db

		app.userStore = postgres.NewPostgresUserStore(db, logger)
		app.accountStore = postgres.NewPostgresAccountStore(db, logger)
		app.transactionStore = postgres.NewPostgresTransactionStore(db, logger)
		app.txRunner = postgres.NewTxRunner(db, logger)
		logger.Info("using postgres stores")
	case "memory":
		accounts := memory.NewAccountStore(logger)
		transactions := memory.NewTransactionStore(logger)

		app.userStore = memory.NewUserStore(logger)
		app.accountStore = accounts
		app.transactionStore = transactions
		app.txRunner = memory.NewTxRunner(accounts, transactions, logger)
		logger.Info("using in-memory stores")
	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
	return nil
}

// setupLocker builds the per-account locker.
func (app *application) setupLocker(ctx context.Context) error {
	cfg := app.config.Lock

	switch cfg.Driver {
	case "redis":
		opts, err := goredislib.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid redis url: %w", err)
		}
		client := goredislib.NewClient(opts)
		app.redisClient = client

		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}

		app.locker = lock.NewRedisLocker(client, lock.RedisOptions{
			Expiry:     cfg.Expiry,
			Tries:      cfg.Tries,
			RetryDelay: cfg.RetryDelay,
		}, app.logger)
		app.logger.Info("using redis account locks", slog.Int("tries", cfg.Tries))
	case "local":
		app.locker = lock.NewLocalLocker(cfg.WaitTimeout, app.logger)
		app.logger.Info("using in-process account locks")
	default:
		return fmt.Errorf("unsupported lock driver %q", cfg.Driver)
	}
	return nil
}

// setupEvents registers the configured broker publisher with an event emitter.
// With the "none" driver no emitter is created and no events are published.
func (app *application) setupEvents() error {
	cfg := app.config.Events

	switch cfg.Driver {
	case "rabbitmq":
		p, err := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.Exchange, app.logger)
		if err != nil {
			return fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}
		app.publisher = p
	case "kafka":
		app.publisher = kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, app.logger)
	case "none":
		app.logger.Info("transaction events disabled")
		return nil
	default:
		return fmt.Errorf("unsupported events driver %q", cfg.Driver)
	}

	emitter := events.NewInMemoryEventEmitter(app.logger)
	emitter.RegisterHandler(app.publisher)
	app.eventEmitter = emitter
	app.logger.Info("publishing transaction events", slog.String("driver", cfg.Driver))
	return nil
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails. Resources are released before it returns.
func (app *application) Run(ctx context.Context) error {
	return app.startHTTPServer(ctx, app.setupRouter())
}

// cleanup releases external connections. It is safe to call on a partially
// initialized application.
func (app *application) cleanup() {
	var errs []error

	if app.publisher != nil {
		if err := app.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis client: %w", err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		app.logger.Error("cleanup finished with errors", slog.String("error", err.Error()))
		return
	}
	app.logger.Debug("cleanup completed")
}
