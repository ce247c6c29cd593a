package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Store keeps media in an S3-compatible bucket using path-style addressing.
type S3Store struct {
	client    *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// NewS3Store 创建 S3 存储。endpoint 或密钥为空时返回 (nil, nil)，由调用方回退到本地存储。
func NewS3Store(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*S3Store, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("s3 bucket is empty")
	}

	endpoint = strings.TrimRight(endpoint, "/")
	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &S3Store{
		client:    client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *S3Store) Save(ctx context.Context, name string, data []byte) (string, error) {
	cleaned, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return saveUnique(ctx, cleaned, func(key string) error {
		// If-None-Match: * 让已存在的 key 返回 412，而不是被覆盖
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(data),
			ContentLength: aws.Int64(int64(len(data))),
			ContentType:   aws.String("image/jpeg"),
			ACL:           s3types.ObjectCannedACLPublicRead,
			IfNoneMatch:   aws.String("*"),
		})
		if err != nil {
			if isPreconditionFailed(err) {
				return errNameTaken
			}
			return fmt.Errorf("s3 upload %s/%s: %w", s.bucket, key, err)
		}
		return nil
	})
}

// Delete removes the object. S3 answers success for missing keys; a NoSuchKey
// from stricter implementations is treated the same way.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	key, err := cleanName(name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

func (s *S3Store) Exists(ctx context.Context, name string) (bool, error) {
	key, err := cleanName(name)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("s3 head %s/%s: %w", s.bucket, key, err)
}

// URL returns the public URL, preferring the configured CDN/public base.
func (s *S3Store) URL(name string) string {
	if s.publicURL != "" {
		return s.publicURL + "/" + name
	}
	return s.endpoint + "/" + s.bucket + "/" + name
}

func isNotFound(err error) bool {
	var notFound *s3types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusPreconditionFailed
	}
	return false
}
