package app_setting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSetting(t *testing.T, content string) string {
	p := filepath.Join(t.TempDir(), "app_setting.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadServerAppSetting(t *testing.T) {
	p := writeSetting(t, `
NOTIFICATION_PAGE_SIZE: 5
MEDIA_STORE: s3
S3_BUCKET_PREFIX: dev-
ENABLE_REDIS_BRIDGE: true
`)
	c, err := LoadServerAppSetting(p)
	require.NoError(t, err)
	assert.Equal(t, 5, c.NOTIFICATION_PAGE_SIZE)
	assert.Equal(t, MediaStoreS3, c.MEDIA_STORE)
	assert.Equal(t, "dev-", c.S3_BUCKET_PREFIX)
	assert.True(t, c.ENABLE_REDIS_BRIDGE)
	// untouched keys keep their default
	assert.Equal(t, 20, c.FEED_PAGE_SIZE)
	assert.Equal(t, AuthModeCognito, c.AUTH_MODE)
}

func TestLoadServerAppSettingRejectsUnknownStore(t *testing.T) {
	_, err := LoadServerAppSetting(writeSetting(t, "MEDIA_STORE: ftp\n"))
	assert.Error(t, err)

	_, err = LoadServerAppSetting(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShippedServerAppSetting(t *testing.T) {
	c, err := LoadServerAppSetting("../cmd/server/app_setting.yaml")
	require.NoError(t, err)
	assert.Equal(t, 10, c.NOTIFICATION_PAGE_SIZE)
}
