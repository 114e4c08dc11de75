// Package syncer copies subscribers from the warehouse into a marketing cloud
// data extension.
//
// A sync is strictly linear: query, reshape, fetch a token, upload. The first
// failing step ends the sync and nothing after it runs.
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/subscriberhub/sfmc-sync/subscriber"
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

type Source interface {
	QuerySubscribers(ctx context.Context) ([]subscriber.Row, error)
}

type TokenSource interface {
	FetchToken(ctx context.Context) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, records []subscriber.Record, token string) (json.RawMessage, error)
}

type Archiver interface {
	Archive(ctx context.Context, batch interface{}) (string, error)
}

type Result struct {
	Success  bool            `json:"success"`
	Inserted int             `json:"inserted"`
	Result   json.RawMessage `json:"result"`
}

type Stage string

const (
	StageQuery  Stage = "query"
	StageAuth   Stage = "auth"
	StageUpload Stage = "upload"
)

// StageError records which step of a sync failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%v: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Handler struct {
	service synccli.Service
	Logger  zerolog.Logger

	source   Source
	tokens   TokenSource
	uploader Uploader

	// Dry skips the token exchange and the upload.
	Dry     bool
	Metrics *synccli.Metrics
	Archive Archiver
}

func NewHandler(
	service synccli.Service,
	source Source,
	tokens TokenSource,
	uploader Uploader,
) *Handler {
	return &Handler{
		service:  service,
		Logger:   synccli.Logger(service),
		source:   source,
		tokens:   tokens,
		uploader: uploader,
	}
}

// logger prefers the request scoped logger placed in ctx by the transport.
func (h *Handler) logger(ctx context.Context) *zerolog.Logger {
	if logger := zerolog.Ctx(ctx); logger.GetLevel() != zerolog.Disabled {
		return logger
	}
	return &h.Logger
}

func (h *Handler) Sync(ctx context.Context) (Result, error) {
	start := time.Now()
	logger := h.logger(ctx)

	rows, err := h.source.QuerySubscribers(ctx)
	if err != nil {
		return Result{}, h.fail(ctx, StageQuery, "snowflake query error", err)
	}

	records := subscriber.ToRecords(rows)
	logger.Info().Int("rows", len(records)).Msg("read subscribers")

	if h.Dry {
		return h.dryRun(ctx, records)
	}

	token, err := h.tokens.FetchToken(ctx)
	if err != nil {
		return Result{}, h.fail(ctx, StageAuth, "sfmc auth error", err)
	}

	remote, err := h.uploader.Upload(ctx, records, token)
	if err != nil {
		return Result{}, h.fail(ctx, StageUpload, "sfmc upload error", err)
	}
	logger.Info().Int("inserted", len(records)).Msg("uploaded rowset")

	h.archive(ctx, records)
	h.Metrics.Gauge(ctx, synccli.RowsInsertedMetric, float64(len(records)))
	h.Metrics.Timing(ctx, synccli.SyncDurationMetric, start)

	return Result{
		Success:  true,
		Inserted: len(records),
		Result:   remote,
	}, nil
}

func (h *Handler) dryRun(ctx context.Context, records []subscriber.Record) (Result, error) {
	batch, err := json.Marshal(records)
	if err != nil {
		return Result{}, fmt.Errorf("failed to marshal batch: %w", err)
	}
	h.logger(ctx).Info().RawJSON("batch", batch).Msg("dry run, skipping upload")
	h.archive(ctx, records)
	return Result{Success: true, Inserted: 0, Result: batch}, nil
}

// archive failures are logged only; by now the upload has already happened.
func (h *Handler) archive(ctx context.Context, records []subscriber.Record) {
	if h.Archive == nil {
		return
	}
	location, err := h.Archive.Archive(ctx, records)
	if err != nil {
		h.logger(ctx).Warn().Err(err).Msg("failed to archive batch")
		return
	}
	h.logger(ctx).Debug().Str("location", location).Msg("archived batch")
}

func (h *Handler) fail(ctx context.Context, stage Stage, prefix string, err error) error {
	h.logger(ctx).Error().Err(err).Str("stage", string(stage)).Msg(prefix)
	h.Metrics.Event(ctx, synccli.SyncFailureMetric, map[synccli.DimensionName]string{
		synccli.StageDimension: string(stage),
	})
	return &StageError{Stage: stage, Err: err}
}

// RunOnce is the entry point for scheduled invocations.
func (h *Handler) RunOnce(ctx context.Context) error {
	result, err := h.Sync(ctx)
	if err != nil {
		return err
	}
	h.logger(ctx).Info().Int("inserted", result.Inserted).Bool("dry", h.Dry).Msg("sync complete")
	return nil
}
