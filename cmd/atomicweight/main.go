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

	"github.com/couchcryptid/nuclide-data-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/nuclide-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/nuclide-data-etl/internal/adapter/postgres"
	"github.com/couchcryptid/nuclide-data-etl/internal/adapter/source"
	"github.com/couchcryptid/nuclide-data-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/nuclide-data-etl/internal/config"
	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/couchcryptid/nuclide-data-etl/internal/lookup"
	"github.com/couchcryptid/nuclide-data-etl/internal/observability"
	"github.com/couchcryptid/nuclide-data-etl/internal/pipeline"
)

// recordStore is a TableStore that can also read the built table back.
type recordStore interface {
	pipeline.TableStore
	Records(ctx context.Context, table string) ([]domain.AtomicWeightRecord, error)
}

func openStore(ctx context.Context, cfg *config.Config) (recordStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.DatabaseURL)
	default:
		return sqlite.Open(ctx, cfg.StorePath)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	codec := domain.NewCodec(domain.DefaultElements())

	sources := pipeline.Sources{
		Abundance:    source.NewKAERIFetcher(cfg.KAERIBaseURL, cfg.FetchTimeout, metrics, logger),
		Mass:         source.NewAMDCFetcher(cfg.AMDCBaseURL, cfg.FetchTimeout, metrics, logger),
		MassDocument: cfg.AMDCMassFile,
		Parser:       source.NewParser(codec, cfg.AMDCMassFile, logger),
	}

	var opts []pipeline.Option
	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled() {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(publisher))
		logger.Info("kafka publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	builder := pipeline.New(codec, sources, cfg.TableName, logger, metrics, opts...)
	open := func(ctx context.Context) (pipeline.TableStore, error) { return openStore(ctx, cfg) }

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tables lookup.Holder
	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, builder, &tables, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	logger.Info("building atomic weight table", "driver", cfg.StoreDriver, "table", cfg.TableName, "raw_dir", cfg.RawDir)
	buildErr := builder.Build(ctx, open, cfg.RawDir)
	if buildErr != nil {
		logger.Error("build failed", "error", buildErr)
	} else if srv != nil {
		if err := loadTable(ctx, cfg, codec, &tables, logger); err != nil {
			logger.Error("load lookup table failed", "error", err)
		} else {
			logger.Info("serving lookups", "addr", cfg.HTTPAddr)
			<-ctx.Done()
		}
	}

	shutdown(cfg, srv, publisher, logger)
	if buildErr != nil {
		os.Exit(1)
	}
}

func loadTable(ctx context.Context, cfg *config.Config, codec *domain.Codec, into *lookup.Holder, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Records(ctx, cfg.TableName)
	if err != nil {
		return fmt.Errorf("read %s: %w", cfg.TableName, err)
	}
	table := lookup.NewTable(codec, records)
	into.Store(table)
	logger.Info("lookup table loaded", "table", cfg.TableName, "rows", table.Len())
	return nil
}

func shutdown(cfg *config.Config, srv *httpadapter.Server, publisher *kafkaadapter.Publisher, logger *slog.Logger) {
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
