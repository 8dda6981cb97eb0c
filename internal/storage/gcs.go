package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/inhahackathon/foodmarket/config"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Uploads smaller than this go out in a single request.
const gcsChunkSize = 4 << 20

// GCSClient keeps board and profile images in a Cloud Storage bucket.
type GCSClient struct {
	client  *gcs.Client
	bucket  *gcs.BucketHandle
	project string
	keys    objectKeys
}

func NewGCSClient(ctx context.Context, cfg config.GCSConfig) (*GCSClient, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("gcs bucket is required")
	}

	var opts []option.ClientOption
	if file := strings.TrimSpace(cfg.CredentialsFile); file != "" {
		opts = append(opts, option.WithCredentialsFile(file))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	return &GCSClient{
		client:  client,
		bucket:  client.Bucket(cfg.Bucket),
		project: cfg.ProjectID,
		keys:    newObjectKeys(cfg.KeyPrefix),
	}, nil
}

// EnsureBucket creates the bucket when it is missing, which needs a project id.
func (g *GCSClient) EnsureBucket(ctx context.Context) error {
	_, err := g.bucket.Attrs(ctx)
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, gcs.ErrBucketNotExist):
		return err
	case strings.TrimSpace(g.project) == "":
		return errors.New("gcs project id is required to create bucket")
	}
	return g.bucket.Create(ctx, g.project, &gcs.BucketAttrs{
		UniformBucketLevelAccess: gcs.UniformBucketLevelAccess{Enabled: true},
	})
}

func (g *GCSClient) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	name := g.keys.object(key)
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = cacheControl
	if size > 0 && size < gcsChunkSize {
		w.ChunkSize = 0
	}

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("put %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("put %s: %w", name, err)
	}
	return nil
}

func (g *GCSClient) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := g.bucket.Object(g.keys.object(key)).NewReader(ctx)
	if err != nil {
		return nil, gcsErr(err)
	}
	return rc, nil
}

func (g *GCSClient) Delete(ctx context.Context, key string) error {
	return gcsErr(g.bucket.Object(g.keys.object(key)).Delete(ctx))
}

func (g *GCSClient) DeletePrefix(ctx context.Context, prefix string) error {
	it := g.bucket.Objects(ctx, &gcs.Query{Prefix: g.keys.dir(prefix)})
	var errs []error
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", prefix, err))
			break
		}
		err = g.bucket.Object(attrs.Name).Delete(ctx)
		if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
			errs = append(errs, fmt.Errorf("delete %s: %w", attrs.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (g *GCSClient) Name() string {
	return config.StorageGCS
}

func gcsErr(err error) error {
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ErrNotFound
	}
	return err
}
