package media

import (
	"context"
	"io"

	. "github.com/Luismorlan/localsocial/utils/log"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

const (
	DefaultS3Region = "us-west-1"
	// S3 accepts at most this many keys per DeleteObjects call.
	maxDeleteBatch = 1000
)

type S3FileStore struct {
	// bucketPrefix is prepended to the logical bucket name, e.g. "dev-".
	bucketPrefix string
	publicPrefix string
	uploader     *s3manager.Uploader
	svc          *s3.S3
}

func NewS3FileStore(region, bucketPrefix, publicPrefix string) (*S3FileStore, error) {
	if region == "" {
		region = DefaultS3Region
	}
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3FileStore{
		bucketPrefix: bucketPrefix,
		publicPrefix: publicPrefix,
		uploader:     s3manager.NewUploader(sess),
		svc:          s3.New(sess),
	}, nil
}

func (s *S3FileStore) bucketName(bucket Bucket) string {
	return s.bucketPrefix + bucket.String()
}

func (s *S3FileStore) Upload(ctx context.Context, bucket Bucket, owner string, fileName string, body io.Reader, contentType string) (string, error) {
	if !bucket.IsValid() {
		return "", errors.Errorf("unknown bucket %q", bucket)
	}
	key, err := GenerateKey(owner, fileName)
	if err != nil {
		return "", err
	}

	_, err = s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		ACL:         aws.String("public-read"),
		Bucket:      aws.String(s.bucketName(bucket)),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to upload %s to %s", key, bucket)
	}
	return key, nil
}

func (s *S3FileStore) PublicURL(bucket Bucket, key string) string {
	return publicURL(s.publicPrefix, bucket, key)
}

func (s *S3FileStore) KeyFromURL(bucket Bucket, url string) (string, bool) {
	return keyFromURL(s.publicPrefix, bucket, url)
}

func (s *S3FileStore) Remove(ctx context.Context, bucket Bucket, keys ...string) error {
	for _, batch := range lo.Chunk(keys, maxDeleteBatch) {
		objects := lo.Map(batch, func(key string, _ int) *s3.ObjectIdentifier {
			return &s3.ObjectIdentifier{Key: aws.String(key)}
		})
		out, err := s.svc.DeleteObjectsWithContext(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucketName(bucket)),
			Delete: &s3.Delete{Objects: objects, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return errors.Wrapf(err, "failed to remove %d objects from %s", len(batch), bucket)
		}
		for _, e := range out.Errors {
			Log.Warnf("cannot remove %s from %s: %s", aws.StringValue(e.Key), bucket, aws.StringValue(e.Message))
		}
	}
	return nil
}
