// Package ddb stores blobs as single DynamoDB items.
package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/resphone/resphone/internal/blob"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ItemAPI is the subset of the DynamoDB client used for blob access.
type ItemAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// blobItem is the stored shape. The table's partition key is PK (string).
type blobItem struct {
	PK        string `dynamodbav:"PK"` // BLOB#<key>
	Body      string `dynamodbav:"body"`
	UpdatedAt string `dynamodbav:"updated_at"` // ISO8601
}

// Repo implements blob.Store over one table.
type Repo struct {
	DB    ItemAPI
	Table string
	Now   func() time.Time
}

var _ blob.Store = (*Repo)(nil)

// Get reads the item for key with a strongly consistent read.
func (r *Repo) Get(ctx context.Context, key string) ([]byte, error) {
	pk, err := attributevalue.Marshal(MakeKey(key))
	if err != nil {
		return nil, err
	}
	out, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.Table,
		Key:            map[string]types.AttributeValue{"PK": pk},
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("ddb get %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return nil, blob.ErrNotExist
	}
	var it blobItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("ddb decode %s: %w", key, err)
	}
	return []byte(it.Body), nil
}

// Put replaces the item for key unconditionally.
func (r *Repo) Put(ctx context.Context, key string, body []byte) error {
	item, err := attributevalue.MarshalMap(blobItem{
		PK:        MakeKey(key),
		Body:      string(body),
		UpdatedAt: r.nowISO(),
	})
	if err != nil {
		return err
	}
	if _, err := r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.Table,
		Item:      item,
	}); err != nil {
		return fmt.Errorf("ddb put %s: %w", key, err)
	}
	return nil
}

func (r *Repo) nowISO() string {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().UTC().Format(time.RFC3339)
}

// awsBool is a helper to get a pointer to a bool literal.
func awsBool(b bool) *bool { return &b }

// MakeKey constructs the partition key for a blob key.
func MakeKey(key string) string {
	return "BLOB#" + key
}
