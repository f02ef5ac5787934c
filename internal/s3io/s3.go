// Package s3io stores blobs in S3 or an S3-compatible bucket such as Cloudflare R2.
package s3io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/resphone/resphone/internal/blob"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ObjectAPI is the subset of the S3 client used for blob access.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// BlobStore implements blob.Store over one bucket.
type BlobStore struct {
	S3     ObjectAPI
	Bucket string
}

var _ blob.Store = (*BlobStore)(nil)

// Get fetches the object body; missing keys map to blob.ErrNotExist.
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blob.ErrNotExist
		}
		return nil, fmt.Errorf("s3 get %s: %w", key, err)
	}
	defer out.Body.Close()
	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", key, err)
	}
	return body, nil
}

// Put overwrites the object. There is no conditional write.
func (b *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := b.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(ContentTypeJSON),
		CacheControl:  aws.String(CacheControlNoStore),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", key, err)
	}
	return nil
}

// isNotFound reports whether err is S3's (or R2's) missing-key error.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
