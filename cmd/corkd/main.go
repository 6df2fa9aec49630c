package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cork-collective/corkd/internal/blob"
	"github.com/cork-collective/corkd/internal/chain"
	"github.com/cork-collective/corkd/internal/compose"
	"github.com/cork-collective/corkd/internal/feed"
	"github.com/cork-collective/corkd/internal/server"
	"github.com/cork-collective/corkd/internal/storage/postgres"
	"github.com/cork-collective/corkd/internal/telemetry"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Host           string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port           int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on"`
	RequestTimeout time.Duration `long:"http.request_timeout" env:"HTTP_REQUEST_TIMEOUT" default:"45s" description:"request processing timeout"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	WalrusAggregator string        `long:"walrus.aggregator" env:"WALRUS_AGGREGATOR" default:"https://aggregator.walrus-testnet.walrus.space" description:"walrus aggregator url"`
	WalrusPublisher  string        `long:"walrus.publisher" env:"WALRUS_PUBLISHER" default:"https://publisher.walrus-testnet.walrus.space" description:"walrus publisher url"`
	WalrusTimeout    time.Duration `long:"walrus.timeout" env:"WALRUS_TIMEOUT" default:"30s" description:"timeout for requests to walrus nodes"`
	UploadMaxElapsed time.Duration `long:"walrus.upload_max_elapsed" env:"WALRUS_UPLOAD_MAX_ELAPSED" default:"1m" description:"total time budget for upload retries"`

	ChainNode       string        `long:"chain.node" env:"CHAIN_NODE" default:"https://rpc.testnet.cork.collective" description:"chain rpc node address"`
	ChainTimeout    time.Duration `long:"chain.timeout" env:"CHAIN_TIMEOUT" default:"15s" description:"timeout for requests to chain node"`
	ChainPackageID  string        `long:"chain.package_id" env:"CHAIN_PACKAGE_ID" description:"cork package object id"`
	ChainRegistryID string        `long:"chain.registry_id" env:"CHAIN_REGISTRY_ID" description:"namespace registry object id"`
	ChainTreasuryID string        `long:"chain.treasury_id" env:"CHAIN_TREASURY_ID" description:"token treasury object id"`
	ChainSignerSeed string        `long:"chain.signer_seed" env:"CHAIN_SIGNER_SEED" description:"hex-encoded ed25519 seed of the service signer"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Corkd"
	parser.LongDescription = "Corkd"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	logrus.Info("service started")

	db := mustGetDB()
	s := postgres.New(db)

	var signer chain.Signer = chain.NoSigner{}
	if opts.ChainSignerSeed != "" {
		if signer, err = chain.NewKeySigner(opts.ChainSignerSeed); err != nil {
			logrus.WithError(err).Fatal("failed to create signer")
		}
	} else {
		logrus.Warn("chain signer seed is not set, write operations will be rejected")
	}

	ch := chain.New(chain.Config{
		NodeURL:    opts.ChainNode,
		PackageID:  opts.ChainPackageID,
		RegistryID: opts.ChainRegistryID,
		TreasuryID: opts.ChainTreasuryID,
		Timeout:    opts.ChainTimeout,
	}, signer)

	blobs := blob.NewClient(opts.WalrusAggregator, opts.WalrusPublisher, opts.WalrusTimeout)
	uploader := blob.NewUploader(ch, blobs, opts.UploadMaxElapsed)

	tl := telemetry.New(s)
	composer := compose.New(s, uploader, tl)
	assembler := feed.New(s, blobs)

	r := chi.NewMux()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	server.SetupRouter(s, assembler, composer, ch, tl, r, opts.RequestTimeout)

	srv := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	ctx, cancel := context.WithCancel(context.Background())

	gr, _ := errgroup.WithContext(ctx)
	gr.Go(srv.ListenAndServe)
	gr.Go(func() error {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shutdown server gracefully")
		}

		// flush queued transaction records
		tl.Stop()

		return nil
	})
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		s := <-sigs

		logrus.Infof("terminating by %s signal", s)

		cancel()

		return errTerminated
	})

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}
