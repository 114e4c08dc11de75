// Package syncrest serves the sync handler over HTTP, either locally or as an
// API Gateway backed Lambda function.
package syncrest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/savaki/apigateway"
	"golang.org/x/sync/errgroup"

	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

const shutdownTimeout = 10 * time.Second

func Middlewares(service synccli.Service, routes chi.Router) chi.Router {
	routes.Use(
		middleware.RequestID,
		withEmbedPolicyHeaders,
		withCORS(),
		withLogger(synccli.Logger(service)),
		middleware.Recoverer,
	)
	return routes
}

// Routes mounts the sync handler. Every method, preflight included, reaches it
// so that it can reject anything other than GET itself.
func Routes(service synccli.Service, handler http.Handler) chi.Router {
	routes := Middlewares(service, chi.NewRouter())
	routes.Handle("/sync", middleware.NoCache(handler))
	return routes
}

// Webserver blocks serving routes. onShutdown runs once the server stops
// accepting requests, in both console and lambda mode.
func Webserver(service synccli.Service, routes chi.Router, onShutdown func()) error {
	logger := synccli.Logger(service)

	if synccli.CommonOpts.Console {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		addr := fmt.Sprintf(":%v", synccli.CommonOpts.Port)
		return ListenAndServe(ctx, logger, addr, routes, onShutdown)
	}

	var options []lambda.Option
	if onShutdown != nil {
		options = append(options, lambda.WithEnableSIGTERM(onShutdown))
	}
	lambda.StartWithOptions(apigateway.Wrap(routes, synccli.CommonOpts.Env), options...)
	return nil
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests before calling onShutdown.
func ListenAndServe(ctx context.Context, logger zerolog.Logger, addr string, routes http.Handler, onShutdown func()) error {
	server := &http.Server{
		Addr:    addr,
		Handler: routes,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info().Str("addr", addr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err := group.Wait()
	if onShutdown != nil {
		onShutdown()
	}
	return err
}

func withEmbedPolicyHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		header := w.Header()
		header.Add("cross-origin-embedder-policy", "require-corp")
		header.Add("cross-origin-opener-policy", "same-origin")
		header.Add("cross-origin-resource-policy", "cross-origin")
		handler.ServeHTTP(w, req)
	})
}

func withCORS() func(next http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		// a simple GET needs no preflight
		OptionsPassthrough: true,
	})
}

func withLogger(logger zerolog.Logger) func(handler http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqLogger := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("request_id", middleware.GetReqID(req.Context())).
				Logger()
			ctx := reqLogger.WithContext(req.Context())
			req = req.WithContext(ctx)
			handler.ServeHTTP(w, req)
		})
	}
}
