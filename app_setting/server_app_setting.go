package app_setting

import (
	"os"

	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	MediaStoreS3    = "s3"
	MediaStoreLocal = "local"

	AuthModeCognito = "cognito"
	AuthModeJWT     = "jwt"
)

// This is the app setting of the api server.
type ServerAppSetting struct {
	// How many notifications the bell menu fetches at once.
	NOTIFICATION_PAGE_SIZE int `yaml:"NOTIFICATION_PAGE_SIZE"`
	// Page size of the post feed.
	FEED_PAGE_SIZE int `yaml:"FEED_PAGE_SIZE"`
	// Events buffered per realtime subscription before new ones are dropped.
	REALTIME_BUFFER_SIZE int64 `yaml:"REALTIME_BUFFER_SIZE"`
	// Connect the realtime hubs of all api server instances through redis.
	ENABLE_REDIS_BRIDGE bool `yaml:"ENABLE_REDIS_BRIDGE"`
	// Redis pub/sub topic the instances share.
	REDIS_BRIDGE_TOPIC string `yaml:"REDIS_BRIDGE_TOPIC"`
	// Cache unread notification counts in redis.
	ENABLE_UNREAD_CACHE bool `yaml:"ENABLE_UNREAD_CACHE"`
	// "s3" or "local".
	MEDIA_STORE string `yaml:"MEDIA_STORE"`
	S3_REGION   string `yaml:"S3_REGION"`
	// Prepended to bucket names, so that environments do not share buckets.
	S3_BUCKET_PREFIX string `yaml:"S3_BUCKET_PREFIX"`
	// Public url media is served from, e.g. the cloudfront distribution.
	MEDIA_PUBLIC_PREFIX string `yaml:"MEDIA_PUBLIC_PREFIX"`
	// Directory of the local media store.
	LOCAL_MEDIA_ROOT string `yaml:"LOCAL_MEDIA_ROOT"`
	// Largest accepted upload in bytes.
	MAX_UPLOAD_BYTES int64 `yaml:"MAX_UPLOAD_BYTES"`
	// "cognito" verifies access tokens against cognito, "jwt" verifies HS256
	// tokens signed with JWT_SECRET from the environment.
	AUTH_MODE string `yaml:"AUTH_MODE"`
	// Datadog agent address for statsd.
	STATSD_ADDR string `yaml:"STATSD_ADDR"`
	// Incoming webhook user feedback is posted to, feedback is only logged
	// when empty.
	SLACK_FEEDBACK_WEBHOOK string `yaml:"SLACK_FEEDBACK_WEBHOOK"`
}

func DefaultServerAppSetting() ServerAppSetting {
	return ServerAppSetting{
		NOTIFICATION_PAGE_SIZE: 10,
		FEED_PAGE_SIZE:         20,
		REALTIME_BUFFER_SIZE:   100,
		MEDIA_STORE:            MediaStoreLocal,
		LOCAL_MEDIA_ROOT:       "media",
		MEDIA_PUBLIC_PREFIX:    "http://localhost:8080/media",
		MAX_UPLOAD_BYTES:       20 << 20,
		AUTH_MODE:              AuthModeCognito,
	}
}

func (s ServerAppSetting) Validate() error {
	if s.MEDIA_STORE != MediaStoreS3 && s.MEDIA_STORE != MediaStoreLocal {
		return errors.Errorf("MEDIA_STORE must be %q or %q, got %q", MediaStoreS3, MediaStoreLocal, s.MEDIA_STORE)
	}
	if s.AUTH_MODE != AuthModeCognito && s.AUTH_MODE != AuthModeJWT {
		return errors.Errorf("AUTH_MODE must be %q or %q, got %q", AuthModeCognito, AuthModeJWT, s.AUTH_MODE)
	}
	if s.NOTIFICATION_PAGE_SIZE <= 0 || s.FEED_PAGE_SIZE <= 0 {
		return errors.New("page sizes must be positive")
	}
	return nil
}

// LoadServerAppSetting reads the yaml file at path on top of the defaults.
func LoadServerAppSetting(path string) (ServerAppSetting, error) {
	c := DefaultServerAppSetting()
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "cannot read app setting")
	}
	if err := yaml.Unmarshal(yamlFile, &c); err != nil {
		return c, errors.Wrap(err, "cannot parse app setting")
	}
	return c, c.Validate()
}

func ParseServerAppSetting(path string) ServerAppSetting {
	c, err := LoadServerAppSetting(path)
	if err != nil {
		Log.Fatal("app setting: ", err)
	}
	return c
}
