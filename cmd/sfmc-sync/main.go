package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/subscriberhub/sfmc-sync/sfmc"
	"github.com/subscriberhub/sfmc-sync/snowflake"
	syncarchive "github.com/subscriberhub/sfmc-sync/sync-archive"
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
	synccron "github.com/subscriberhub/sfmc-sync/sync-cron"
	syncrest "github.com/subscriberhub/sfmc-sync/sync-rest"
	syncsecret "github.com/subscriberhub/sfmc-sync/sync-secret"
	"github.com/subscriberhub/sfmc-sync/syncer"
)

var opts struct {
	Schedule    bool
	HTTPTimeout time.Duration
}

var service = synccli.NewService("sfmc-sync")

func main() {
	synccli.LoadDotEnv(synccli.Logger(service))

	flags := append(synccli.CommonFlags, synccli.PortFlag(3000))
	flags = append(flags, snowflake.SnowflakeFlags...)
	flags = append(flags, sfmc.SFMCFlags...)
	flags = append(flags, syncsecret.SecretFlags...)
	flags = append(flags, syncarchive.ArchiveFlags...)
	flags = append(flags,
		synccli.BoolFlag("schedule", "run as a scheduled job instead of an http endpoint", &opts.Schedule),
		&cli.DurationFlag{
			Name:        "http-timeout",
			Usage:       "timeout for each marketing cloud request",
			Value:       30 * time.Second,
			EnvVars:     []string{"HTTP_TIMEOUT"},
			Destination: &opts.HTTPTimeout,
		},
	)

	app := synccli.App(service, action, flags...)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	logger := synccli.Logger(service)
	s := session.Must(session.NewSession(aws.NewConfig()))

	whConfig, mcConfig := snowflake.SnowflakeOpts, sfmc.SFMCOpts
	if name := syncsecret.SecretOpts.SecretName; name != "" {
		creds, err := syncsecret.LoadCredentials(s, name)
		if err != nil {
			return err
		}
		creds.Apply(&whConfig, &mcConfig)
	}

	warehouse := snowflake.New(whConfig, logger)
	handler, err := newHandler(s, warehouse, mcConfig)
	if err != nil {
		return err
	}

	onShutdown := closer(logger, warehouse)
	if opts.Schedule {
		return synccron.NewHandler(service, handler.RunOnce, onShutdown).Start()
	}
	return syncrest.Webserver(service, syncrest.Routes(service, handler), onShutdown)
}

func newHandler(s *session.Session, warehouse syncer.Source, mcConfig sfmc.Config) (*syncer.Handler, error) {
	client, err := sfmc.New(mcConfig, &http.Client{Timeout: opts.HTTPTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to configure sfmc client: %w", err)
	}

	handler := syncer.NewHandler(service, warehouse, client, client)
	handler.Dry = synccli.CommonOpts.Dry
	if synccli.CommonOpts.Metrics {
		handler.Metrics = synccli.NewMetrics(service, cloudwatch.New(s))
	}

	bucket, outFile := archiveTargets(synccli.CommonOpts.Dry, syncarchive.ArchiveOpts.Bucket, syncarchive.ArchiveOpts.OutFile)
	if archiver := syncarchive.New(service, s3.New(s), "rowset", bucket, outFile); archiver != nil {
		handler.Archive = archiver
	}
	return handler, nil
}

// archiveTargets keeps dry runs out of the archive bucket when a local out
// file is given, and ignores the out file outside dry runs.
func archiveTargets(dry bool, bucket, outFile string) (string, string) {
	if !dry {
		return bucket, ""
	}
	if outFile != "" {
		return "", outFile
	}
	return bucket, ""
}

func closer(logger zerolog.Logger, warehouse *snowflake.Client) func() {
	return func() {
		if err := warehouse.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close snowflake connection")
			return
		}
		logger.Info().Msg("closed snowflake connection")
	}
}
