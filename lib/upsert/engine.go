package upsert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/artie-labs/dimload/lib/batch"
	"github.com/artie-labs/dimload/lib/db"
	"github.com/artie-labs/dimload/lib/redact"
	"github.com/artie-labs/dimload/lib/rows"
	"github.com/artie-labs/dimload/lib/schema"
	"github.com/artie-labs/dimload/lib/sql"
	"github.com/artie-labs/dimload/lib/telemetry/metrics"
	"github.com/artie-labs/dimload/lib/telemetry/metrics/base"
)

const (
	chunkDurationMetric  = "upsert.chunk.duration"
	chunkRowsMetric      = "upsert.chunk.rows"
	versionsClosedMetric = "upsert.versions_closed"
)

type Options struct {
	// ChunkSize defaults to [batch.DefaultChunkSize].
	ChunkSize int
	// EffectiveDate starts new versions of rows without a start date. Defaults to the current UTC date of each load.
	EffectiveDate time.Time
	// MaxChunksPerSecond limits how often chunks are applied, zero disables the limit.
	MaxChunksPerSecond float64
	Metrics            base.Client
}

type Request struct {
	Table      string
	Rows       []map[string]any
	KeyColumns []string
	// NonKeyColumns defaults to every writable non-key column.
	NonKeyColumns []string
	// StartChunk skips the chunks before it, which a previous load already committed.
	StartChunk int
}

type ChunkFailure struct {
	Index  int
	Offset int
	// Reason is the error message with credentials and personal details removed.
	Reason string
}

type Result struct {
	Table       string
	TotalChunks int
	// Chunks holds the chunks attempted by this load, in order.
	Chunks []ChunkResult
	// States holds the state of every chunk of the batch. Chunks before the start chunk are reported as committed.
	States         []ChunkState
	Committed      int
	RowsAffected   int64
	VersionsClosed int
	// NextChunk is where a later load should resume, [TotalChunks] once every chunk is committed.
	NextChunk int
	Failure   *ChunkFailure
}

func (r Result) Done() bool {
	return r.NextChunk >= r.TotalChunks && r.Failure == nil
}

// Engine applies batches to the tables of a registry, chunk by chunk.
type Engine struct {
	store    db.Store
	dialect  sql.Dialect
	registry *schema.Registry
	opts     Options
	limiter  *rate.Limiter
}

func NewEngine(store db.Store, dialect sql.Dialect, registry *schema.Registry, opts Options) (*Engine, error) {
	if store == nil || dialect == nil || registry == nil {
		return nil, ConfigurationError{Reason: "store, dialect and registry are required"}
	}

	if opts.ChunkSize == 0 {
		opts.ChunkSize = batch.DefaultChunkSize
	}

	if opts.ChunkSize < 0 {
		return nil, ConfigurationError{Reason: fmt.Sprintf("chunk size must be a positive number, got: %d", opts.ChunkSize)}
	}

	if opts.MaxChunksPerSecond < 0 {
		return nil, ConfigurationError{Reason: fmt.Sprintf("max chunks per second cannot be negative, got: %v", opts.MaxChunksPerSecond)}
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.NullMetricsProvider{}
	}

	engine := &Engine{
		store:    store,
		dialect:  dialect,
		registry: registry,
		opts:     opts,
	}

	if opts.MaxChunksPerSecond > 0 {
		engine.limiter = rate.NewLimiter(rate.Limit(opts.MaxChunksPerSecond), 1)
	}

	return engine, nil
}

func (e *Engine) ChunkSize() int {
	return e.opts.ChunkSize
}

// Upsert applies [rows] to [table], writing every non-key column on conflict.
func (e *Engine) Upsert(ctx context.Context, table string, rows []map[string]any, keyColumns []string) (Result, error) {
	return e.Load(ctx, Request{Table: table, Rows: rows, KeyColumns: keyColumns})
}

// Load applies the request's rows chunk by chunk, in input order, and stops at the first failing chunk.
// Committed chunks are kept when a later chunk fails or [ctx] is cancelled.
func (e *Engine) Load(ctx context.Context, req Request) (Result, error) {
	result := Result{Table: req.Table}

	table, err := e.registry.Get(req.Table)
	if err != nil {
		return result, newConfigurationError(req.Table, "%v", err)
	}

	resolver, err := NewResolver(table, e.dialect, req.KeyColumns, req.NonKeyColumns)
	if err != nil {
		return result, err
	}

	normalized := rows.Normalize(req.Rows)
	result.TotalChunks = batch.Count(len(normalized), e.opts.ChunkSize)
	if req.StartChunk < 0 || req.StartChunk > result.TotalChunks {
		return result, newConfigurationError(req.Table, "start chunk %d is out of range, the batch has %d chunks", req.StartChunk, result.TotalChunks)
	}

	chunks, err := batch.Chunks(normalized, e.opts.ChunkSize)
	if err != nil {
		return result, ConfigurationError{Table: req.Table, Reason: err.Error()}
	}

	result.States = make([]ChunkState, result.TotalChunks)
	for i := range result.States {
		result.States[i] = Pending
		if i < req.StartChunk {
			result.States[i] = Committed
		}
	}

	result.NextChunk = req.StartChunk
	executor := NewExecutor(e.store, e.dialect, e.effectiveDate())
	for index, chunk := range chunks {
		if index < req.StartChunk {
			continue
		}

		offset := index * e.opts.ChunkSize
		if err = e.wait(ctx); err != nil {
			return result, fmt.Errorf("load of %q stopped before chunk %d: %w", req.Table, index, err)
		}

		chunkResult, err := e.applyChunk(ctx, executor, resolver, index, offset, chunk)
		result.Chunks = append(result.Chunks, chunkResult)
		result.States[index] = chunkResult.State
		if err != nil {
			result.Failure = &ChunkFailure{Index: index, Offset: offset, Reason: redact.ScrubErrorMessage(err.Error())}
			return result, err
		}

		result.Committed++
		result.RowsAffected += chunkResult.RowsAffected
		result.VersionsClosed += chunkResult.VersionsClosed
		result.NextChunk = index + 1
	}

	return result, nil
}

func (e *Engine) effectiveDate() time.Time {
	if !e.opts.EffectiveDate.IsZero() {
		return e.opts.EffectiveDate
	}

	return time.Now().UTC()
}

func (e *Engine) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.limiter == nil {
		return nil
	}

	return e.limiter.Wait(ctx)
}

func (e *Engine) applyChunk(ctx context.Context, executor *Executor, resolver *Resolver, index, offset int, chunk []map[string]any) (ChunkResult, error) {
	tags := map[string]string{"table": resolver.Table().Name}
	plan, err := resolver.Resolve(index, offset, chunk)
	if err != nil {
		tags["state"] = string(RolledBack)
		e.opts.Metrics.Count(chunkRowsMetric, int64(len(chunk)), tags)
		slog.Warn("Rejected chunk", slog.String("table", resolver.Table().Name), slog.Int("chunk", index), slog.Any("err", err))
		return ChunkResult{Index: index, Offset: offset, Rows: len(chunk), State: RolledBack}, err
	}

	chunkResult, err := executor.Execute(ctx, plan)
	tags["state"] = string(chunkResult.State)
	e.opts.Metrics.Timing(chunkDurationMetric, chunkResult.Duration, tags)
	e.opts.Metrics.Count(chunkRowsMetric, int64(chunkResult.Rows), tags)
	if err != nil {
		var storeErr StoreError
		slog.Warn("Failed to apply chunk",
			slog.String("table", resolver.Table().Name),
			slog.Int("chunk", index),
			slog.Bool("retryable", errors.As(err, &storeErr) && storeErr.Retryable),
			slog.Any("err", err),
		)
		return chunkResult, err
	}

	if chunkResult.VersionsClosed > 0 {
		e.opts.Metrics.Count(versionsClosedMetric, int64(chunkResult.VersionsClosed), tags)
	}

	slog.Info("Upserted chunk",
		slog.String("table", resolver.Table().Name),
		slog.Int("chunk", index),
		slog.Int("rows", chunkResult.Rows),
		slog.Int64("rowsAffected", chunkResult.RowsAffected),
		slog.Int("versionsClosed", chunkResult.VersionsClosed),
		slog.Duration("duration", chunkResult.Duration),
	)
	return chunkResult, nil
}
