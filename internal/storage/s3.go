package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"mehnda-chinji/internal/repository"
)

// S3KV keeps each device key as one private object in S3 (or a compatible API).
type S3KV struct {
	client   ObjectAPI
	uploader Uploader
	opts     Options
}

// NewS3KV builds the store from a concrete S3 client.
func NewS3KV(client *s3.Client, opts Options) (*S3KV, error) {
	return NewS3KVWith(client, manager.NewUploader(client), opts)
}

// NewS3KVWith builds the store from its parts.
func NewS3KVWith(client ObjectAPI, uploader Uploader, opts Options) (*S3KV, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	opts.KeyPrefix = strings.Trim(opts.KeyPrefix, "/")
	return &S3KV{client: client, uploader: uploader, opts: opts}, nil
}

func (s *S3KV) objectKey(key string) string {
	escaped := url.PathEscape(key)
	if s.opts.KeyPrefix == "" {
		return escaped
	}
	return s.opts.KeyPrefix + "/" + escaped
}

func (s *S3KV) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get object %s: %w", key, err)
	}
	body, err := readAll(out.Body)
	if err != nil {
		return "", false, fmt.Errorf("read object %s: %w", key, err)
	}
	return string(body), true, nil
}

func (s *S3KV) Set(ctx context.Context, key, value string) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(s.objectKey(key)),
		Body:        strings.NewReader(value),
		ContentType: aws.String("application/json"),
		ACL:         types.ObjectCannedACLPrivate,
	})
	if err != nil {
		return fmt.Errorf("upload object %s: %w", key, err)
	}
	return nil
}

// Remove deletes the object. S3 reports success for missing keys.
func (s *S3KV) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

var _ repository.KVStore = (*S3KV)(nil)
