// Package media stores user uploaded images and videos.
package media

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type Bucket string

const (
	BucketPostImages        Bucket = "post-images"
	BucketEventImages       Bucket = "event-images"
	BucketMarketplaceImages Bucket = "marketplace-images"
	BucketLocationImages    Bucket = "location-images"
)

var AllBucket = []Bucket{
	BucketPostImages,
	BucketEventImages,
	BucketMarketplaceImages,
	BucketLocationImages,
}

func (e Bucket) IsValid() bool {
	switch e {
	case BucketPostImages, BucketEventImages, BucketMarketplaceImages, BucketLocationImages:
		return true
	}
	return false
}

func (e Bucket) String() string {
	return string(e)
}

// FileStore is an object storage with public read access.
type FileStore interface {
	// Upload stores body under a fresh key owned by owner and returns the key.
	Upload(ctx context.Context, bucket Bucket, owner string, fileName string, body io.Reader, contentType string) (key string, err error)
	PublicURL(bucket Bucket, key string) string
	// Remove deletes the keys, missing keys are ignored.
	Remove(ctx context.Context, bucket Bucket, keys ...string) error
	// KeyFromURL reverses PublicURL. It returns false for urls that do not
	// point into the bucket.
	KeyFromURL(bucket Bucket, url string) (string, bool)
}

// GenerateKey returns "<owner>/<uuid><ext>" where ext is the lower cased
// extension of fileName.
func GenerateKey(owner, fileName string) (string, error) {
	if owner == "" || strings.Contains(owner, "/") {
		return "", fmt.Errorf("invalid media owner: %q", owner)
	}
	return owner + "/" + uuid.New().String() + strings.ToLower(path.Ext(fileName)), nil
}

func publicURL(prefix string, bucket Bucket, key string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + bucket.String() + "/" + key
}

func keyFromURL(prefix string, bucket Bucket, url string) (string, bool) {
	bucketPrefix := strings.TrimSuffix(prefix, "/") + "/" + bucket.String() + "/"
	if !strings.HasPrefix(url, bucketPrefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, bucketPrefix)
	if i := strings.IndexAny(key, "?#"); i >= 0 {
		key = key[:i]
	}
	return key, key != ""
}
