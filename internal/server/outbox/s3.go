package outbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type S3Config struct {
	User     string
	Password string
	Bucket   string
	Region   string
	Endpoint string
}

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink archives every event as one JSON object. Keys are deterministic so
// a redelivered event overwrites its earlier copy.
type S3Sink struct {
	client objectPutter
	bucket string
}

func NewS3Sink(ctx context.Context, c S3Config) (*S3Sink, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.User, c.Password, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	})
	return &S3Sink{client: client, bucket: c.Bucket}, nil
}

// ObjectKey returns the archive key of e, e.g.
// "events/Applied/00000000000000000042.json".
func ObjectKey(e *models.Event) string {
	return fmt.Sprintf("events/%s/%020d.json", e.Kind, e.Seq)
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Publish(ctx context.Context, e *models.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(ObjectKey(e)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", ObjectKey(e), err)
	}
	return nil
}

func (s *S3Sink) Close() error { return nil }
