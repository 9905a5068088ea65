// Package media stores user avatars and cover images in an S3-compatible
// bucket and hands back their public URLs.
package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/streamhub/account-service/internal/core/ports"
)

const defaultTimeout = 30 * time.Second

var errForeignURL = errors.New("url does not belong to this media host")

// Config addresses the bucket. PublicURL is the prefix under which objects
// are served; when empty it is derived from Endpoint or the AWS virtual host.
type Config struct {
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	PublicURL string
	Timeout   time.Duration
}

// objectAPI is the subset of *s3.Client used by S3Host.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// UploadObserver is notified after every upload attempt.
type UploadObserver func(kind string, elapsed time.Duration, err error)

type S3Host struct {
	client    objectAPI
	bucket    string
	publicURL string
	timeout   time.Duration
	observe   UploadObserver
	now       func() time.Time
	newName   func() string
}

// NewS3Host builds an S3 client from cfg. Static credentials are used when
// both keys are set, otherwise the default AWS credential chain applies.
func NewS3Host(ctx context.Context, cfg Config, observe UploadObserver) (*S3Host, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Host(client, cfg, observe), nil
}

func newS3Host(client objectAPI, cfg Config, observe UploadObserver) *S3Host {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if observe == nil {
		observe = func(string, time.Duration, error) {}
	}
	return &S3Host{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(publicBase(cfg), "/"),
		timeout:   timeout,
		observe:   observe,
		now:       func() time.Time { return time.Now().UTC() },
		newName:   uuid.NewString,
	}
}

func publicBase(cfg Config) string {
	switch {
	case cfg.PublicURL != "":
		return cfg.PublicURL
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Upload stores file under <kind>/yyyy/mm/dd/<uuid><ext> and returns its
// public URL.
func (h *S3Host) Upload(ctx context.Context, kind ports.MediaKind, file *ports.MediaFile) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	key := h.objectKey(kind, file.Filename)
	in := &s3.PutObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
	}
	if file.ContentType != "" {
		in.ContentType = aws.String(file.ContentType)
	}
	if file.Size > 0 {
		in.ContentLength = aws.Int64(file.Size)
	}

	start := time.Now()
	_, err := h.client.PutObject(ctx, in)
	h.observe(string(kind), time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return h.publicURL + "/" + key, nil
}

// Delete removes the object behind rawURL. URLs outside this host are
// rejected so that stale external links are never touched.
func (h *S3Host) Delete(ctx context.Context, rawURL string) error {
	key, err := h.keyFromURL(rawURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(h.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

func (h *S3Host) objectKey(kind ports.MediaKind, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(string(kind), h.now().Format("2006/01/02"), h.newName()+ext)
}

func (h *S3Host) keyFromURL(rawURL string) (string, error) {
	prefix := h.publicURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", fmt.Errorf("%w: %s", errForeignURL, rawURL)
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || key == "" {
		return "", fmt.Errorf("%w: %s", errForeignURL, rawURL)
	}
	return key, nil
}
