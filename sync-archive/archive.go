// Package syncarchive keeps a copy of every batch pushed to the data
// extension, in S3 or, for dry runs, on local disk.
package syncarchive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog"

	synccli "github.com/subscriberhub/sfmc-sync/sync-cli"
)

type Archiver struct {
	service synccli.Service
	logger  zerolog.Logger
	s3      s3iface.S3API

	name    string
	bucket  string
	outFile string
	now     func() time.Time
}

func ArchiveKey(serviceName, name string, timestamp time.Time) string {
	return fmt.Sprintf("%v/%v/%v/%v/%v", serviceName, name, timestamp.Format("2006-01-02"), timestamp.Format("15"), timestamp.Format("2006-01-02-15:04:05.json"))
}

// New returns an archiver writing to bucket, or to outFile when bucket is
// empty. It returns nil when neither is set.
func New(service synccli.Service, api s3iface.S3API, name, bucket, outFile string) *Archiver {
	if bucket == "" && outFile == "" {
		return nil
	}
	return &Archiver{
		service: service,
		logger:  synccli.Logger(service),
		s3:      api,
		name:    name,
		bucket:  bucket,
		outFile: outFile,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Archive stores batch and returns where it was written.
func (a *Archiver) Archive(ctx context.Context, batch interface{}) (string, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	if a.bucket == "" {
		if err := os.MkdirAll(path.Dir(a.outFile), 0755); err != nil {
			return "", err
		}
		a.logger.Info().Str("filename", a.outFile).Int("size", len(data)).Msg("saving batch locally")
		if err := os.WriteFile(a.outFile, data, 0644); err != nil {
			return "", err
		}
		return a.outFile, nil
	}

	key := ArchiveKey(a.service.Name, a.name, a.now())
	a.logger.Info().Str("bucket", a.bucket).Str("filename", key).Int("size", len(data)).Msg("saving batch to s3")
	_, err = a.s3.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Body:        bytes.NewReader(data),
		Key:         aws.String(key),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive batch to s3://%v/%v: %w", a.bucket, key, err)
	}
	return fmt.Sprintf("s3://%v/%v", a.bucket, key), nil
}
