package model

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/movierec-backend/internal/pkg/logger"
)

const gcsScheme = "gs://"

// StorageOptions configures access to gs:// artifacts.
type StorageOptions struct {
	CredentialsFile string
	// EmulatorHost points the client at a fake-gcs-server style emulator and
	// disables authentication.
	EmulatorHost string
}

// ArtifactStore opens model artifacts from local disk or from GCS.
type ArtifactStore struct {
	log  *logger.Logger
	opts StorageOptions

	mu     sync.Mutex
	client *storage.Client
}

func NewArtifactStore(opts StorageOptions, baseLog *logger.Logger) *ArtifactStore {
	return &ArtifactStore{
		log:  baseLog.With("component", "ArtifactStore"),
		opts: opts,
	}
}

// Open returns a reader for uri, which is either a filesystem path or
// gs://bucket/object.
func (a *ArtifactStore) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("artifact path required")
	}
	if !strings.HasPrefix(uri, gcsScheme) {
		f, err := os.Open(uri)
		if err != nil {
			return nil, fmt.Errorf("open artifact %s: %w", uri, err)
		}
		return f, nil
	}

	bucket, object, err := splitGCSURI(uri)
	if err != nil {
		return nil, err
	}
	client, err := a.storageClient(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	a.log.Debug("artifact opened", "bucket", bucket, "object", object, "size", r.Attrs.Size)
	return r, nil
}

// ReadAll is Open followed by io.ReadAll.
func (a *ArtifactStore) ReadAll(ctx context.Context, uri string) ([]byte, error) {
	rc, err := a.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", uri, err)
	}
	return b, nil
}

func (a *ArtifactStore) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client == nil {
		return nil
	}
	err := a.client.Close()
	a.client = nil
	return err
}

func (a *ArtifactStore) storageClient(ctx context.Context) (*storage.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(a.opts.EmulatorHost), "/"); host != "" {
		_ = os.Setenv("STORAGE_EMULATOR_HOST", host)
		opts = append(opts, option.WithoutAuthentication())
		a.log.Info("using storage emulator", "emulator_host", host)
	} else if cf := strings.TrimSpace(a.opts.CredentialsFile); cf != "" {
		opts = append(opts, option.WithCredentialsFile(cf))
	}
	opts = append(opts, option.WithScopes(storage.ScopeReadOnly))

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	a.client = client
	return client, nil
}

func splitGCSURI(uri string) (bucket, object string, err error) {
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid gcs uri %q: want gs://bucket/object", uri)
	}
	return bucket, object, nil
}

// resolveRelative resolves ref against the location of base. Absolute refs
// and gs:// refs are returned unchanged.
func resolveRelative(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, gcsScheme) || filepath.IsAbs(ref) {
		return ref
	}
	if strings.HasPrefix(base, gcsScheme) {
		bucket, object, err := splitGCSURI(base)
		if err != nil {
			return ref
		}
		return gcsScheme + bucket + "/" + path.Join(path.Dir(object), ref)
	}
	return filepath.Join(filepath.Dir(base), ref)
}
