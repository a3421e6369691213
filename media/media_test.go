package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	key, err := GenerateKey("user_1", "Holiday.JPG")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "user_1/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	other, _ := GenerateKey("user_1", "Holiday.JPG")
	assert.NotEqual(t, key, other)

	_, err = GenerateKey("", "a.png")
	assert.Error(t, err)
	_, err = GenerateKey("a/b", "a.png")
	assert.Error(t, err)
}

func TestBucket(t *testing.T) {
	for _, b := range AllBucket {
		assert.True(t, b.IsValid())
	}
	assert.False(t, Bucket("avatars").IsValid())
}

func TestKeyFromURL(t *testing.T) {
	prefix := "https://cdn.example.com/"
	url := publicURL(prefix, BucketPostImages, "u/1.png")
	assert.Equal(t, "https://cdn.example.com/post-images/u/1.png", url)

	key, ok := keyFromURL(prefix, BucketPostImages, url+"?width=200")
	assert.True(t, ok)
	assert.Equal(t, "u/1.png", key)

	_, ok = keyFromURL(prefix, BucketEventImages, url)
	assert.False(t, ok)
	_, ok = keyFromURL(prefix, BucketPostImages, "https://youtube.com/watch?v=1")
	assert.False(t, ok)
}

func TestLocalFileStore(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalFileStore(root, "http://localhost:8080/media")
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Upload(ctx, BucketPostImages, "u", "cat.png", strings.NewReader("meow"), "image/png")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(root, "post-images", filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, "meow", string(b))

	url := s.PublicURL(BucketPostImages, key)
	got, ok := s.KeyFromURL(BucketPostImages, url)
	require.True(t, ok)
	assert.Equal(t, key, got)

	require.NoError(t, s.Remove(ctx, BucketPostImages, key, "u/missing.png"))
	_, err = os.Stat(filepath.Join(root, "post-images", filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	_, err = s.Upload(ctx, Bucket("avatars"), "u", "cat.png", strings.NewReader(""), "image/png")
	assert.Error(t, err)
}

func TestS3FileStoreUrls(t *testing.T) {
	s, err := NewS3FileStore("", "dev-", "https://d1.cloudfront.net")
	require.NoError(t, err)
	assert.Equal(t, "dev-post-images", s.bucketName(BucketPostImages))

	url := s.PublicURL(BucketMarketplaceImages, "u/x.webp")
	assert.Equal(t, "https://d1.cloudfront.net/marketplace-images/u/x.webp", url)
	key, ok := s.KeyFromURL(BucketMarketplaceImages, url)
	assert.True(t, ok)
	assert.Equal(t, "u/x.webp", key)
}
