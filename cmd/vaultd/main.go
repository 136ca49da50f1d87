// Command vaultd runs the staking vault service.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/doa-network/staking-vault/internal/chain"
	"github.com/doa-network/staking-vault/internal/config"
	"github.com/doa-network/staking-vault/internal/economics"
	"github.com/doa-network/staking-vault/internal/httpapi"
	"github.com/doa-network/staking-vault/internal/ledger"
	ledgermem "github.com/doa-network/staking-vault/internal/ledger/memory"
	ledgerpg "github.com/doa-network/staking-vault/internal/ledger/postgres"
	"github.com/doa-network/staking-vault/internal/txmgr"
	"github.com/doa-network/staking-vault/internal/vault"
	"github.com/doa-network/staking-vault/internal/wallet"
	"github.com/doa-network/staking-vault/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/vault.yaml", "path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "vaultd: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}).WithField("component", "vaultd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	programID, err := chain.ParseAddress(cfg.Program.ID)
	if err != nil {
		return fmt.Errorf("program id: %w", err)
	}
	treasury, err := chain.ParseAddress(cfg.Program.Treasury)
	if err != nil {
		return fmt.Errorf("treasury address: %w", err)
	}

	client, err := chain.NewClient(chain.Config{
		Endpoint: cfg.RPC.Endpoint,
		Timeout:  cfg.RPC.Timeout.Std(),
	})
	if err != nil {
		return fmt.Errorf("chain client: %w", err)
	}

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure store: %w", err)
	}
	defer closeStore()

	signer := buildSigner(cfg, log)

	manager := txmgr.New(client, signer, log.WithField("component", "txmgr"),
		txmgr.WithPollInterval(cfg.RPC.PollInterval.Std()),
		txmgr.WithConfirmTimeout(cfg.RPC.ConfirmTimeout.Std()),
	)

	engine, err := vault.NewEngine(
		vault.Params{
			ProgramID: programID,
			Treasury:  treasury,
			Schedule: economics.Schedule{
				PenaltyWindow:    cfg.Staking.PenaltyWindow.Std(),
				LockWindow:       cfg.Staking.LockWindow.Std(),
				PenaltyRateBps:   cfg.Staking.PenaltyRateBps,
				RewardMultiplier: cfg.Staking.RewardMultiplier,
			},
		},
		signer, manager, client, store,
		log.WithField("component", "engine"),
	)
	if err != nil {
		return fmt.Errorf("vault engine: %w", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      httpapi.NewHandler(engine, log.WithField("component", "httpapi")),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *config.Config) (ledger.Store, func(), error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		store := ledgerpg.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, func() { db.Close() }, nil
	default:
		return ledgermem.New(), func() {}, nil
	}
}

func buildSigner(cfg *config.Config, log *logger.Logger) wallet.Signer {
	if seed := os.Getenv("VAULT_KEYPAIR_SEED"); seed != "" {
		kp, err := wallet.FromSeedHex(seed)
		if err != nil {
			log.WithError(err).Warn("VAULT_KEYPAIR_SEED invalid, starting disconnected")
			return wallet.Disconnected{}
		}
		return kp
	}
	if cfg.Wallet.KeypairFile != "" {
		kp, err := wallet.LoadFile(cfg.Wallet.KeypairFile)
		if err != nil {
			log.WithError(err).Warn("keypair file unreadable, starting disconnected")
			return wallet.Disconnected{}
		}
		return kp
	}
	log.Warn("no signing identity configured, starting disconnected")
	return wallet.Disconnected{}
}
