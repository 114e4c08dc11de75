package main

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/rs/zerolog"
	"github.com/tj/assert"

	"github.com/subscriberhub/sfmc-sync/sfmc"
	"github.com/subscriberhub/sfmc-sync/snowflake"
	syncarchive "github.com/subscriberhub/sfmc-sync/sync-archive"
	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

func testSession() *session.Session {
	return session.Must(session.NewSession(aws.NewConfig().WithRegion("us-east-1")))
}

func TestNewHandler(t *testing.T) {
	warehouse := snowflake.New(snowflake.Config{}, zerolog.Nop())

	t.Run("requires subdomain", func(t *testing.T) {
		_, err := newHandler(testSession(), warehouse, sfmc.Config{})
		assert.Error(t, err)
	})

	t.Run("plain", func(t *testing.T) {
		handler, err := newHandler(testSession(), warehouse, sfmc.Config{Subdomain: "mc123"})
		assert.NoError(t, err)
		assert.False(t, handler.Dry)
		assert.Nil(t, handler.Metrics)
		assert.Nil(t, handler.Archive)
	})

	t.Run("dry run with out file", func(t *testing.T) {
		synccli.CommonOpts.Dry = true
		syncarchive.ArchiveOpts.OutFile = "batch.json"
		defer func() {
			synccli.CommonOpts.Dry = false
			syncarchive.ArchiveOpts.OutFile = ""
		}()

		handler, err := newHandler(testSession(), warehouse, sfmc.Config{Subdomain: "mc123"})
		assert.NoError(t, err)
		assert.True(t, handler.Dry)
		assert.NotNil(t, handler.Archive)
	})

	t.Run("out file ignored outside dry run", func(t *testing.T) {
		syncarchive.ArchiveOpts.OutFile = "batch.json"
		defer func() { syncarchive.ArchiveOpts.OutFile = "" }()

		handler, err := newHandler(testSession(), warehouse, sfmc.Config{Subdomain: "mc123"})
		assert.NoError(t, err)
		assert.Nil(t, handler.Archive)
	})
}

func TestArchiveTargets(t *testing.T) {
	tt := []struct {
		name        string
		dry         bool
		bucket      string
		outFile     string
		wantBucket  string
		wantOutFile string
	}{
		{name: "live run uses bucket", bucket: "archive", outFile: "batch.json", wantBucket: "archive"},
		{name: "dry run prefers out file", dry: true, bucket: "archive", outFile: "batch.json", wantOutFile: "batch.json"},
		{name: "dry run without out file", dry: true, bucket: "archive", wantBucket: "archive"},
		{name: "nothing set"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			bucket, outFile := archiveTargets(tc.dry, tc.bucket, tc.outFile)
			assert.Equal(t, tc.wantBucket, bucket)
			assert.Equal(t, tc.wantOutFile, outFile)
		})
	}
}

func TestCloser(t *testing.T) {
	warehouse := snowflake.New(snowflake.Config{}, zerolog.Nop())
	closer(zerolog.Nop(), warehouse)()
}
