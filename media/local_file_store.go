package media

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LocalFileStore keeps media on disk under root/<bucket>/<key>. It is used in
// development and tests, the api server serves root under publicPrefix.
type LocalFileStore struct {
	root         string
	publicPrefix string
}

func NewLocalFileStore(root, publicPrefix string) (*LocalFileStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &LocalFileStore{root: root, publicPrefix: publicPrefix}, nil
}

func (s *LocalFileStore) Root() string {
	return s.root
}

func (s *LocalFileStore) path(bucket Bucket, key string) string {
	return filepath.Join(s.root, bucket.String(), filepath.FromSlash(key))
}

func (s *LocalFileStore) Upload(ctx context.Context, bucket Bucket, owner string, fileName string, body io.Reader, contentType string) (string, error) {
	if !bucket.IsValid() {
		return "", errors.Errorf("unknown bucket %q", bucket)
	}
	key, err := GenerateKey(owner, fileName)
	if err != nil {
		return "", err
	}

	p := s.path(bucket, key)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return "", err
	}
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, body); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", key)
	}
	return key, nil
}

func (s *LocalFileStore) PublicURL(bucket Bucket, key string) string {
	return publicURL(s.publicPrefix, bucket, key)
}

func (s *LocalFileStore) KeyFromURL(bucket Bucket, url string) (string, bool) {
	return keyFromURL(s.publicPrefix, bucket, url)
}

func (s *LocalFileStore) Remove(ctx context.Context, bucket Bucket, keys ...string) error {
	for _, key := range keys {
		if err := os.Remove(s.path(bucket, key)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
