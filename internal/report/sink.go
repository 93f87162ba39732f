package report

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Sink stores a finished report file.
type Sink interface {
	Put(ctx context.Context, name string, data []byte, contentType string) error
	Describe() string
}

// FileSink writes reports into a local directory.
type FileSink struct {
	Dir string
}

// NewFileSink creates a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put writes data to Dir/name.
func (s *FileSink) Put(_ context.Context, name string, data []byte, _ string) error {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), data, 0o644)
}

// Describe returns the target directory.
func (s *FileSink) Describe() string {
	if s.Dir == "" {
		return "."
	}
	return s.Dir
}

// S3Options configures an S3Sink.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// S3Sink uploads reports to an S3-compatible bucket. Objects are stored
// under Prefix/RunID/name.
type S3Sink struct {
	client *minio.Client
	bucket string
	region string
	prefix string

	initOnce sync.Once
	initErr  error
}

// NewS3Sink creates an uploader. runID is put into every object key so
// runs do not overwrite each other; it may be empty.
func NewS3Sink(opts S3Options, runID string) (*S3Sink, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(opts.Region)
	if region == "" {
		region = "us-east-1"
	}

	var creds *credentials.Credentials
	if opts.AccessKey != "" || opts.SecretKey != "" {
		creds = credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, "")
	} else {
		creds = credentials.NewEnvAWS()
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: opts.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	prefix := strings.Trim(opts.Prefix, "/")
	if runID != "" {
		prefix = path.Join(prefix, runID)
	}
	return &S3Sink{client: client, bucket: bucket, region: region, prefix: prefix}, nil
}

func (s *S3Sink) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads one object.
func (s *S3Sink) Put(ctx context.Context, name string, data []byte, contentType string) error {
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	opts := minio.PutObjectOptions{ContentType: contentType}
	if strings.HasSuffix(name, ".gz") {
		opts.ContentEncoding = "gzip"
	}
	_, err := s.client.PutObject(ctx, s.bucket, s.Key(name), bytes.NewReader(data), int64(len(data)), opts)
	return err
}

// Key returns the object key for a report file name.
func (s *S3Sink) Key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// Describe returns s3://bucket/prefix.
func (s *S3Sink) Describe() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}
