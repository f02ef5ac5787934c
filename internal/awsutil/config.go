// Package awsutil builds AWS SDK clients, honoring an endpoint override for
// LocalStack or S3-compatible stores such as Cloudflare R2.
package awsutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Load loads the default AWS configuration for region.
func Load(ctx context.Context, region string) (aws.Config, error) {
	return awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
}

// S3Options applies endpoint to an S3 client. Custom endpoints use path-style addressing.
func S3Options(endpoint string) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

// NewS3 returns an S3 client for cfg, pointed at endpoint when set.
func NewS3(cfg aws.Config, endpoint string) *s3.Client {
	return s3.NewFromConfig(cfg, S3Options(endpoint))
}

// DynamoDBOptions applies endpoint to a DynamoDB client.
func DynamoDBOptions(endpoint string) func(*dynamodb.Options) {
	return func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}
}

// NewDynamoDB returns a DynamoDB client for cfg, pointed at endpoint when set.
func NewDynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, DynamoDBOptions(endpoint))
}
