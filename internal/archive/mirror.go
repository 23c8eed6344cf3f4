package archive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

const (
	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	mirrorAttempts       = 3
	mirrorInitialBackoff = 200 * time.Millisecond
	mirrorMaxBackoff     = 2 * time.Second
)

// Mirror uploads rendered documents to an S3 bucket under incidents/. It is
// fire-and-forget: upload failures are logged by the pipeline and never fail
// a request.
type Mirror struct {
	client *s3.Client
	bucket string
}

// NewMirror creates a Mirror against the given bucket using default AWS
// credential resolution.
func NewMirror(ctx context.Context, bucket, region string) (*Mirror, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Mirror{
		client: s3.NewFromConfig(awsCfg),
		bucket: bucket,
	}, nil
}

// Upload copies the document at path to s3://{bucket}/incidents/{number}.docx
// with a short retry/backoff. The file is reopened per attempt so each retry
// reads from the start.
func (m *Mirror) Upload(ctx context.Context, incidentNumber, path string) error {
	key := "incidents/" + incidentNumber + DocExt

	var lastErr error
	backoff := mirrorInitialBackoff
	for attempt := 1; attempt <= mirrorAttempts; attempt++ {
		if err := m.putObject(ctx, key, path); err != nil {
			lastErr = err
			log.Warn().Err(err).Int("attempt", attempt).Str("key", key).Msg("Mirror upload attempt failed")
		} else {
			log.Info().Str("incident", incidentNumber).Str("key", key).Msg("Mirrored incident document")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > mirrorMaxBackoff {
			backoff = mirrorMaxBackoff
		}
	}
	return fmt.Errorf("mirror upload %s: %w", key, lastErr)
}

func (m *Mirror) putObject(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(docxContentType),
	})
	return err
}
