package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/nuclide-data-etl/internal/domain"
	"github.com/couchcryptid/nuclide-data-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Fetcher makes sure the raw document for identifier exists under destDir.
// Implementations must be idempotent: a document already on disk is not fetched again.
type Fetcher interface {
	Fetch(ctx context.Context, identifier, destDir string) error
}

// RecordParser extracts primitive records from the raw documents under rawDir.
type RecordParser interface {
	ParseAbundances(rawDir string) (domain.Abundances, error)
	ParseMasses(rawDir string) ([]domain.MassRecord, error)
}

// TableStore is the persistent reference store the table is written into.
// Create must be all-or-nothing: on error no partial table is visible.
type TableStore interface {
	Exists(ctx context.Context, table string) (bool, error)
	Create(ctx context.Context, table string, schema domain.Schema, rows [][]any) error
	Close() error
}

// OpenStoreFunc opens (or creates) the target store for one build.
type OpenStoreFunc func(ctx context.Context) (TableStore, error)

// Publisher announces a freshly built table to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, records []domain.AtomicWeightRecord, builtAt time.Time) error
}

// Sources wires the raw-data collaborators.
type Sources struct {
	// Abundance is called once per known element, with the element symbol.
	Abundance Fetcher
	// Mass is called once with MassDocument.
	Mass         Fetcher
	MassDocument string
	Parser       RecordParser
}

// Builder builds the atomic-weight table at most once per store.
type Builder struct {
	codec     *domain.Codec
	sources   Sources
	table     string
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ready     atomic.Bool
}

// Option customises a Builder.
type Option func(*Builder)

// WithPublisher publishes each newly built table through p.
func WithPublisher(p Publisher) Option {
	return func(b *Builder) { b.publisher = p }
}

// WithClock replaces the real clock, for deterministic stage timings in tests.
func WithClock(c clockwork.Clock) Option {
	return func(b *Builder) { b.clock = c }
}

// New creates a Builder writing into the named table.
func New(codec *domain.Codec, sources Sources, table string, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Builder {
	b := &Builder{
		codec:   codec,
		sources: sources,
		table:   table,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CheckReadiness returns nil once the table is known to exist in the store.
func (b *Builder) CheckReadiness(_ context.Context) error {
	if !b.ready.Load() {
		return errors.New("atomic-weight table has not been built yet")
	}
	return nil
}

// Build opens the store and, unless the table already exists, fetches and
// parses the raw sources, merges them, and writes the result as a new table.
// The store is closed before Build returns. Nothing is written unless the
// full merged table was computed.
func (b *Builder) Build(ctx context.Context, open OpenStoreFunc, rawDir string) (err error) {
	defer func() {
		if err != nil {
			b.metrics.Builds.WithLabelValues("failed").Inc()
		}
	}()

	store, err := open(ctx)
	if err != nil {
		return storeError("open store", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = storeError("close store", cerr)
		}
	}()

	exists, err := store.Exists(ctx, b.table)
	if err != nil {
		return storeError("check table", err)
	}
	if exists {
		b.logger.Info("table already exists, skipping build", "table", b.table)
		b.markReady()
		b.metrics.Builds.WithLabelValues("exists").Inc()
		return nil
	}

	records, err := b.compute(ctx, rawDir)
	if err != nil {
		return err
	}

	start := b.clock.Now()
	b.logger.Info("writing table", "table", b.table, "rows", len(records))
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = r.Values()
	}
	if err := store.Create(ctx, b.table, domain.AtomicWeightSchema, rows); err != nil {
		return storeError("create table", err)
	}
	b.observeStage("write", start)
	b.metrics.RowsWritten.Add(float64(len(rows)))
	b.markReady()
	b.metrics.Builds.WithLabelValues("built").Inc()

	b.publish(ctx, records)
	return nil
}

// compute runs fetch, parse, and merge. It touches no store.
func (b *Builder) compute(ctx context.Context, rawDir string) ([]domain.AtomicWeightRecord, error) {
	start := b.clock.Now()
	elements := b.codec.Elements()
	b.logger.Info("fetching atomic abundance pages", "elements", len(elements), "dir", rawDir)
	for _, el := range elements {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		symbol, err := b.codec.Decode(el)
		if err != nil {
			return nil, err
		}
		if err := b.sources.Abundance.Fetch(ctx, symbol, rawDir); err != nil {
			return nil, sourceError("fetch abundance page "+symbol, err)
		}
	}
	b.logger.Info("fetching atomic mass table", "document", b.sources.MassDocument)
	if err := b.sources.Mass.Fetch(ctx, b.sources.MassDocument, rawDir); err != nil {
		return nil, sourceError("fetch mass table", err)
	}
	b.observeStage("fetch", start)

	start = b.clock.Now()
	b.logger.Info("parsing raw records", "dir", rawDir)
	abundances, err := b.sources.Parser.ParseAbundances(rawDir)
	if err != nil {
		return nil, sourceError("parse abundances", err)
	}
	masses, err := b.sources.Parser.ParseMasses(rawDir)
	if err != nil {
		return nil, sourceError("parse masses", err)
	}
	b.metrics.RecordsParsed.WithLabelValues("abundance").Add(float64(len(abundances)))
	b.metrics.RecordsParsed.WithLabelValues("mass").Add(float64(len(masses)))
	b.observeStage("parse", start)

	start = b.clock.Now()
	b.logger.Info("merging abundance and mass data", "abundances", len(abundances), "masses", len(masses))
	result := domain.Merge(b.codec, abundances, masses, elements, b.logger)
	b.metrics.RecordsSkipped.Add(float64(len(result.Skipped)))
	b.observeStage("merge", start)
	if len(result.Skipped) > 0 {
		b.logger.Warn("records skipped during merge", "count", len(result.Skipped))
	}
	return result.Records, nil
}

// publish is best effort: the table is already committed, so a failure is
// logged and counted but not returned.
func (b *Builder) publish(ctx context.Context, records []domain.AtomicWeightRecord) {
	if b.publisher == nil {
		return
	}
	start := b.clock.Now()
	if err := b.publisher.Publish(ctx, records, start); err != nil {
		b.logger.Error("publish atomic weights failed", "error", err, "rows", len(records))
		b.metrics.PublishErrors.Inc()
		return
	}
	b.observeStage("publish", start)
	b.logger.Info("published atomic weights", "rows", len(records))
}

func (b *Builder) markReady() {
	b.ready.Store(true)
	b.metrics.TableReady.Set(1)
}

func (b *Builder) observeStage(stage string, start time.Time) {
	b.metrics.StageDuration.WithLabelValues(stage).Observe(b.clock.Since(start).Seconds())
}

func storeError(op string, err error) error {
	if errors.Is(err, domain.ErrStoreAccess) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreAccess, op, err)
}

func sourceError(op string, err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrSourceUnavailable, op, err)
}
