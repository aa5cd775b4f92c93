package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zveinn/buttonpatch/config"
)

// Uploader stores a copy of a file somewhere off this machine.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
}

func New(cfg config.Remote) (*Bucket, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("remote backup: no endpoint configured")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("remote backup: no bucket configured")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("remote backup: %s and %s are required", config.EnvAccessKey, config.EnvSecretKey)
	}

	endpoint, secure := splitEndpoint(cfg.Endpoint, cfg.Secure)
	trans, err := createHTTPTransport(secure, cfg.InsecureSkipVerify)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    secure,
		Transport: trans,
		Region:    cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("remote backup: %w", err)
	}
	return &Bucket{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// splitEndpoint strips the scheme, which also decides TLS when given.
func splitEndpoint(endpoint string, secure bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "https://"), "/"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimSuffix(strings.TrimPrefix(endpoint, "http://"), "/"), false
	}
	return strings.TrimSuffix(endpoint, "/"), secure
}

func createHTTPTransport(secure, skipVerify bool) (*http.Transport, error) {
	transport, err := minio.DefaultTransport(secure)
	if err != nil {
		return nil, err
	}
	if secure && skipVerify && transport.TLSClientConfig != nil {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}
	return transport, nil
}

// ObjectName is prefix/<base>.<utc timestamp>.bak.
func ObjectName(prefix, file string, t time.Time) string {
	name := filepath.Base(file) + "." + t.UTC().Format("20060102T150405Z") + ".bak"
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

func (b *Bucket) Endpoint() string {
	return b.client.EndpointURL().String()
}

// Upload puts data under an object name derived from name and returns
// the bucket/object location.
func (b *Bucket) Upload(ctx context.Context, name string, data []byte) (string, error) {
	object := ObjectName(b.prefix, name, time.Now())
	info, err := b.client.PutObject(ctx, b.bucket, object, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return "", fmt.Errorf("uploading %s/%s: %w", b.bucket, object, err)
	}
	return info.Bucket + "/" + info.Key, nil
}
