package model

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source reads an artifact by location
type Source interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// FileSource reads from the local filesystem
type FileSource struct{}

// Fetch implements Source
func (FileSource) Fetch(_ context.Context, location string) ([]byte, error) {
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", location, err)
	}
	return data, nil
}

// ObjectGetter is the part of *s3.Client the S3 source needs
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the bucket client. Endpoint and static keys are
// only needed for S3-compatible stores such as MinIO.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) ObjectGetter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Source reads s3://bucket/key locations
type S3Source struct {
	client ObjectGetter
}

// NewS3Source builds a client from opts. No request is made until Fetch.
func NewS3Source(ctx context.Context, opts S3Options) (*S3Source, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Source{client: client}, nil
}

// NewS3SourceWithClient wraps an existing client
func NewS3SourceWithClient(client ObjectGetter) *S3Source {
	return &S3Source{client: client}
}

// Fetch implements Source
func (s *S3Source) Fetch(ctx context.Context, location string) ([]byte, error) {
	bucket, key, err := ParseS3URI(location)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", location, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

// ParseS3URI splits s3://bucket/key
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %q", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs a bucket and a key: %q", uri)
	}
	return bucket, key, nil
}

// Router dispatches s3:// locations to S3 and everything else to Local
type Router struct {
	Local Source
	S3    Source
}

// Fetch implements Source
func (r Router) Fetch(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(location, "s3://") {
		if r.S3 == nil {
			return nil, fmt.Errorf("no s3 source configured for %s", location)
		}
		return r.S3.Fetch(ctx, location)
	}
	local := r.Local
	if local == nil {
		local = FileSource{}
	}
	return local.Fetch(ctx, location)
}
