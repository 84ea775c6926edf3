package load

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/artie-labs/dimload/lib"
	"github.com/artie-labs/dimload/lib/batchfile"
	"github.com/artie-labs/dimload/lib/checkpoint"
	"github.com/artie-labs/dimload/lib/config"
	"github.com/artie-labs/dimload/lib/destination"
	"github.com/artie-labs/dimload/lib/destination/ddl"
	"github.com/artie-labs/dimload/lib/retry"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/telemetry/metrics"
	"github.com/artie-labs/dimload/lib/telemetry/metrics/base"
	"github.com/artie-labs/dimload/lib/upsert"
)

const (
	tableDurationMetric = "load.table.duration"
	chunkRetryMetric    = "load.chunk.retry"
	rowsPendingMetric   = "load.table.rows_pending"

	heartbeatInitialDelay = time.Minute
	heartbeatInterval     = time.Minute
)

type TableSummary struct {
	Table       string
	Rows        int
	TotalChunks int
	// StartChunk is where this load resumed from a checkpoint.
	StartChunk int
	NextChunk  int
	// Committed, RowsAffected and VersionsClosed add up every attempt.
	Committed      int
	RowsAffected   int64
	VersionsClosed int
	Attempts       int
	// Skipped is set when an earlier level failed and the table was not loaded.
	Skipped bool
	Failure *upsert.ChunkFailure
	Err     error
}

func (t TableSummary) Done() bool {
	return !t.Skipped && t.Err == nil && t.NextChunk >= t.TotalChunks
}

type Summary struct {
	LoadID string
	// Tables are in load order.
	Tables []TableSummary
}

func (s Summary) Failed() bool {
	for _, table := range s.Tables {
		if !table.Done() {
			return true
		}
	}
	return false
}

func (s Summary) Table(name string) (TableSummary, bool) {
	for _, table := range s.Tables {
		if table.Table == name {
			return table, true
		}
	}
	return TableSummary{}, false
}

type Loader struct {
	dest        destination.Destination
	registry    *schema.Registry
	engine      *upsert.Engine
	checkpoints checkpoint.Store
	metrics     base.Client
	cfg         config.Config
	readRows    func(path string) ([]map[string]any, error)
}

func NewLoader(dest destination.Destination, registry *schema.Registry, checkpoints checkpoint.Store, metricsClient base.Client) (*Loader, error) {
	if dest == nil || registry == nil || checkpoints == nil {
		return nil, fmt.Errorf("destination, registry and checkpoint store are required")
	}

	if metricsClient == nil {
		metricsClient = metrics.NullMetricsProvider{}
	}

	cfg := dest.GetConfig()
	effectiveDate, err := cfg.ParsedEffectiveDate(time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse effective date: %w", err)
	}

	engine, err := upsert.NewEngine(dest, dest.Dialect(), registry, upsert.Options{
		ChunkSize:          cfg.ChunkSize,
		EffectiveDate:      effectiveDate,
		MaxChunksPerSecond: cfg.MaxChunksPerSecond,
		Metrics:            metricsClient,
	})
	if err != nil {
		return nil, err
	}

	return &Loader{
		dest:        dest,
		registry:    registry,
		engine:      engine,
		checkpoints: checkpoints,
		metrics:     metricsClient,
		cfg:         cfg,
		readRows:    batchfile.Read,
	}, nil
}

// Run loads every configured table under [loadID]. Tables are loaded level by level so that dimensions are
// committed before the tables that look them up, tables of one level load concurrently.
// Reusing a [loadID] resumes each table from its checkpoint.
func (l *Loader) Run(ctx context.Context, loadID string) (Summary, error) {
	summary := Summary{LoadID: loadID}

	tables := make(map[string]config.Table, len(l.cfg.Tables))
	names := make([]string, 0, len(l.cfg.Tables))
	for _, table := range l.cfg.Tables {
		tables[table.Name] = table
		names = append(names, table.Name)
	}

	levels, err := l.registry.Levels(names)
	if err != nil {
		return summary, fmt.Errorf("failed to order tables: %w", err)
	}

	batches := make(map[string][]map[string]any, len(names))
	for _, name := range names {
		rows, err := l.readRows(tables[name].Input)
		if err != nil {
			return summary, fmt.Errorf("failed to read rows of %q: %w", name, err)
		}
		batches[name] = rows
	}

	if l.cfg.BootstrapTables {
		if err = ddl.CreateTables(ctx, l.dest, l.registry, names); err != nil {
			return summary, fmt.Errorf("failed to bootstrap tables: %w", err)
		}
	}

	var errs []error
	for _, level := range levels {
		results := make([]TableSummary, len(level))
		if len(errs) > 0 {
			for i, name := range level {
				results[i] = TableSummary{Table: name, Rows: len(batches[name]), Skipped: true}
				slog.Warn("Skipping table, an earlier level failed", slog.String("table", name))
			}
			summary.Tables = append(summary.Tables, results...)
			continue
		}

		var group errgroup.Group
		for i, name := range level {
			group.Go(func() error {
				results[i] = l.loadTable(ctx, loadID, tables[name], batches[name])
				return results[i].Err
			})
		}

		// Every table records its own error.
		_ = group.Wait()
		for _, result := range results {
			if result.Err != nil {
				errs = append(errs, result.Err)
			}
		}
		summary.Tables = append(summary.Tables, results...)
	}

	if len(errs) > 0 {
		return summary, fmt.Errorf("load %s failed: %w", loadID, errors.Join(errs...))
	}

	return summary, nil
}

func (l *Loader) keyColumns(table config.Table) ([]string, error) {
	if len(table.KeyColumns) > 0 {
		return table.KeyColumns, nil
	}

	schemaTable, err := l.registry.Get(table.Name)
	if err != nil {
		return nil, err
	}
	return schemaTable.KeyColumns, nil
}

// reportPending gauges the rows from [nextChunk] onwards, which a later attempt or load still has to apply.
func (l *Loader) reportPending(tags map[string]string, rows, nextChunk int) {
	l.metrics.Gauge(rowsPendingMetric, float64(max(rows-nextChunk*l.engine.ChunkSize(), 0)), tags)
}

func isRetryableErr(err error) bool {
	var storeErr upsert.StoreError
	return errors.As(err, &storeErr) && storeErr.Retryable
}

// loadTable applies [rows] from the table's checkpoint onwards. A chunk that fails with a retryable store error
// is resubmitted, together with the chunks after it, until the retry budget runs out.
func (l *Loader) loadTable(ctx context.Context, loadID string, table config.Table, rows []map[string]any) TableSummary {
	start := time.Now()
	summary := TableSummary{Table: table.Name, Rows: len(rows)}
	tags := map[string]string{"table": table.Name}
	stopHeartbeats := lib.NewHeartbeats(heartbeatInitialDelay, heartbeatInterval, "Table is still loading",
		slog.String("table", table.Name), slog.Int("rows", len(rows)),
	).Start()
	defer stopHeartbeats()
	defer func() {
		tags["done"] = fmt.Sprint(summary.Done())
		l.metrics.Timing(tableDurationMetric, time.Since(start), tags)
	}()

	keyColumns, err := l.keyColumns(table)
	if err != nil {
		summary.Err = err
		return summary
	}

	nextChunk, ok, err := l.checkpoints.Get(ctx, loadID, table.Name)
	if err != nil {
		summary.Err = err
		return summary
	}

	if ok {
		slog.Info("Resuming table from checkpoint", slog.String("table", table.Name), slog.Int("chunk", nextChunk))
	}

	summary.StartChunk = nextChunk
	summary.NextChunk = nextChunk
	l.reportPending(tags, len(rows), nextChunk)

	retryCfg := retry.NewRetryConfig(retry.NewRetryConfigArgs{
		JitterBaseMs:   l.cfg.Retry.JitterBaseMs,
		JitterMaxMs:    l.cfg.Retry.JitterMaxMs,
		MaxAttempts:    l.cfg.Retry.MaxAttempts,
		IsRetryableErr: isRetryableErr,
	})

	err = retryCfg.WithRetries(ctx, func(attempt int, _ error) error {
		summary.Attempts = attempt + 1
		if attempt > 0 {
			l.metrics.Incr(chunkRetryMetric, tags)
		}

		result, err := l.engine.Load(ctx, upsert.Request{
			Table:         table.Name,
			Rows:          rows,
			KeyColumns:    keyColumns,
			NonKeyColumns: table.NonKeyColumns,
			StartChunk:    summary.NextChunk,
		})

		summary.TotalChunks = result.TotalChunks
		summary.Committed += result.Committed
		summary.RowsAffected += result.RowsAffected
		summary.VersionsClosed += result.VersionsClosed
		summary.Failure = result.Failure
		if result.NextChunk > summary.NextChunk {
			summary.NextChunk = result.NextChunk
			if saveErr := l.checkpoints.Set(context.WithoutCancel(ctx), loadID, table.Name, summary.NextChunk); saveErr != nil {
				slog.Warn("Failed to save checkpoint", slog.String("table", table.Name), slog.Any("err", saveErr))
			}
		}
		l.reportPending(tags, len(rows), summary.NextChunk)

		return err
	})

	if err != nil {
		summary.Err = fmt.Errorf("failed to load %q: %w", table.Name, err)
		return summary
	}

	slog.Info("Loaded table",
		slog.String("table", table.Name),
		slog.Int("chunks", summary.TotalChunks),
		slog.Int("committed", summary.Committed),
		slog.Int64("rowsAffected", summary.RowsAffected),
		slog.Int("versionsClosed", summary.VersionsClosed),
	)
	return summary
}
