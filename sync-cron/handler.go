// Package synccron runs the sync on a schedule as an EventBridge triggered
// Lambda function.
package synccron

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

type RunCallback func(ctx context.Context) error

type Handler struct {
	service synccli.Service
	logger  zerolog.Logger

	runOnce    RunCallback
	onShutdown func()
}

func NewHandler(
	service synccli.Service,
	runOnce RunCallback,
	onShutdown func(),
) *Handler {
	return &Handler{
		service:    service,
		logger:     synccli.Logger(service),
		runOnce:    runOnce,
		onShutdown: onShutdown,
	}
}

func (h *Handler) RunOnce(ctx context.Context, event events.CloudWatchEvent) error {
	logger := h.logger.With().Str("event_id", event.ID).Str("rule", firstResource(event)).Logger()
	logger.Info().Msg("running scheduled sync")
	return h.runOnce(logger.WithContext(ctx))
}

func firstResource(event events.CloudWatchEvent) string {
	if len(event.Resources) == 0 {
		return ""
	}
	return event.Resources[0]
}

func (h *Handler) Start() error {
	switch {
	case synccli.CommonOpts.Console:
		defer h.shutdown()
		return h.RunOnce(context.Background(), events.CloudWatchEvent{ID: "console"})

	default:
		var options []lambda.Option
		if h.onShutdown != nil {
			options = append(options, lambda.WithEnableSIGTERM(h.onShutdown))
		}
		lambda.StartWithOptions(h.RunOnce, options...)
	}
	return nil
}

func (h *Handler) shutdown() {
	if h.onShutdown != nil {
		h.onShutdown()
	}
}
