package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sheikh-saqib/payments-engine/internal/config"
	"github.com/sheikh-saqib/payments-engine/internal/csvio"
	"github.com/sheikh-saqib/payments-engine/internal/events/kafka"
	interfaces "github.com/sheikh-saqib/payments-engine/internal/interfaces"
	"github.com/sheikh-saqib/payments-engine/internal/ledger"
	"github.com/sheikh-saqib/payments-engine/internal/storage/memory"
	"github.com/sheikh-saqib/payments-engine/internal/storage/postgres"
)

func main() {
	debug := flag.Bool("debug", false, "log per-record rejection reasons to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: payments-engine [-debug] <input.csv>")
		os.Exit(2)
	}

	logger := newLogger(*debug)
	defer logger.Sync()

	cfg := config.Load()
	runID := uuid.New().String()
	logger.Debug("starting run", zap.String("run_id", runID), zap.String("backend", cfg.Backend))

	if err := run(context.Background(), cfg, logger, runID, flag.Arg(0), os.Stdout); err != nil {
		logger.Error("run failed", zap.String("run_id", runID), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, runID, input string, out io.Writer) error {
	store, closeStore, err := openStore(ctx, cfg, runID)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithRunID(runID),
	}
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewPublisher(cfg.KafkaBrokers)
		defer pub.Close()
		opts = append(opts, ledger.WithPublisher(pub, cfg.AppliedTopic, cfg.RejectedTopic))
	}
	processor := ledger.NewProcessor(store, opts...)

	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := processor.Run(ctx, csvio.NewReader(f)); err != nil {
		return err
	}

	accounts, err := store.Accounts()
	if err != nil {
		return err
	}
	return csvio.WriteAccounts(out, accounts)
}

func openStore(ctx context.Context, cfg *config.Config, runID string) (interfaces.LedgerStore, func(), error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewMemoryLedgerStore(), func() {}, nil

	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("postgres backend requires DATABASE_URL")
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		store := postgres.NewPostgresLedgerStore(db, runID)
		if err := store.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

func newLogger(debug bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
