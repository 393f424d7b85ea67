// Package minio serves decoy contact maps from S3-compatible object storage.
package minio

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/pkg/errors"
)

// ObjectAPI is the subset of the object store used by foldcore.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error
}

// sdkAPI adapts *minio.Client to ObjectAPI.
type sdkAPI struct {
	c *minio.Client
}

func (a sdkAPI) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return a.c.BucketExists(ctx, bucket)
}

// Fetch stats the object before returning it so that a missing key fails
// here rather than on the first Read.
func (a sdkAPI) Fetch(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	obj, err := a.c.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, err
	}
	return obj, nil
}

func (a sdkAPI) Put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	_, err := a.c.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: "text/plain"})
	return err
}

// Client reads and writes contact maps under Bucket/Prefix.
type Client struct {
	api    ObjectAPI
	bucket string
	prefix string
	logger logging.Logger
}

// NewClient connects to the configured endpoint and checks the bucket exists.
func NewClient(cfg config.MinIOConfig, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create minio client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	c, err := NewClientWithAPI(ctx, sdkAPI{c: mc}, cfg.Bucket, cfg.Prefix, log)
	if err != nil {
		return nil, err
	}
	log.Info("MinIO client connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket),
		logging.Bool("ssl", cfg.UseSSL))
	return c, nil
}

// NewClientWithAPI builds a Client over any ObjectAPI.
func NewClientWithAPI(ctx context.Context, api ObjectAPI, bucket, prefix string, log logging.Logger) (*Client, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	ok, err := api.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to connect to minio")
	}
	if !ok {
		return nil, errors.New(errors.CodeNotFound, "decoy bucket does not exist").WithDetail(bucket)
	}
	return &Client{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: log}, nil
}

func (c *Client) objectKey(name string) string {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// Open implements conformation.MapSource.
func (c *Client) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := c.objectKey(name)
	rc, err := c.api.Fetch(ctx, c.bucket, key)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, errors.Wrap(err, errors.CodeNotFound, "contact map object not found").WithDetail(key)
		}
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to fetch contact map").WithDetail(key)
	}
	c.logger.Debug("fetched contact map", logging.String("bucket", c.bucket), logging.String("key", key))
	return rc, nil
}

// Upload stores one contact map or index file under name.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64) error {
	key := c.objectKey(name)
	if err := c.api.Put(ctx, c.bucket, key, r, size); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload contact map").WithDetail(key)
	}
	c.logger.Info("uploaded contact map", logging.String("bucket", c.bucket), logging.String("key", key))
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

//Personal.AI order the ending
