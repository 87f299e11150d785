package s3store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/rsamf/gamma/internal/platform/apierr"
	"github.com/rsamf/gamma/internal/platform/logger"
)

const (
	serviceName       = "s3"
	DefaultPresignTTL = time.Hour
	defaultMaxKeys    = 1000
)

type Object struct {
	Key          string     `json:"key"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"last_modified"`
	ETag         string     `json:"etag"`
}

type ObjectMetadata struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	LastModified *time.Time        `json:"last_modified"`
	ContentType  string            `json:"content_type"`
	Metadata     map[string]string `json:"metadata"`
}

type objectAPI interface {
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Config struct {
	// Endpoint overrides the S3 endpoint, e.g. for MinIO or LocalStack.
	Endpoint   string
	PresignTTL time.Duration
}

type Store struct {
	api     objectAPI
	presign presignAPI
	ttl     time.Duration
	log     *logger.Logger
}

func New(awsCfg aws.Config, cfg Config, log *logger.Logger) *Store {
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newStore(client, s3.NewPresignClient(client), cfg.PresignTTL, log)
}

func newStore(api objectAPI, presign presignAPI, ttl time.Duration, log *logger.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	return &Store{api: api, presign: presign, ttl: ttl, log: log.With("client", "S3")}
}

// ListObjects returns up to maxKeys objects under prefix (a single page).
func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int) ([]Object, error) {
	if maxKeys <= 0 {
		maxKeys = defaultMaxKeys
	}
	out, err := s.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(int32(maxKeys)),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	objs := make([]Object, 0, len(out.Contents))
	for _, o := range out.Contents {
		objs = append(objs, Object{
			Key:          aws.ToString(o.Key),
			Size:         aws.ToInt64(o.Size),
			LastModified: o.LastModified,
			ETag:         aws.ToString(o.ETag),
		})
	}
	return objs, nil
}

// PresignGet returns a time-limited GET URL; ttl <= 0 uses the store default.
func (s *Store) PresignGet(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapErr(err)
	}
	return req.URL, nil
}

func (s *Store) HeadObject(ctx context.Context, bucket, key string) (*ObjectMetadata, error) {
	out, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapErr(err)
	}
	meta := out.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	return &ObjectMetadata{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: out.LastModified,
		ContentType:  aws.ToString(out.ContentType),
		Metadata:     meta,
	}, nil
}

func wrapErr(err error) error {
	status := 0
	var re *smithyhttp.ResponseError
	if errors.As(err, &re) {
		status = re.HTTPStatusCode()
	}
	var ae smithy.APIError
	if errors.As(err, &ae) {
		err = errors.New(ae.ErrorCode() + ": " + ae.ErrorMessage())
	}
	return apierr.Upstream(serviceName, status, err)
}
