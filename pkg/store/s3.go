package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3 is an S3-backed Store for a single bucket. Credentials and region come
// from the usual SDK chain (env, shared config, instance role).
type S3 struct {
	bucket string
	api    s3iface.S3API
}

func NewS3(bucket string) *S3 {
	sess := session.Must(session.NewSession())
	return &S3{bucket: bucket, api: s3.New(sess)}
}

// NewS3WithAPI injects the S3 API, used by tests to substitute a mock.
func NewS3WithAPI(bucket string, api s3iface.S3API) *S3 {
	return &S3{bucket: bucket, api: api}
}

func (s *S3) Get(key string) ([]byte, error) {
	out, err := s.api.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("store: get 's3://%s/%s': %w", s.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("store: read 's3://%s/%s': %w", s.bucket, key, err)
	}
	return data, nil
}

func (s *S3) Put(key string, data []byte) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("store: put 's3://%s/%s': %w", s.bucket, key, err)
	}
	return nil
}
