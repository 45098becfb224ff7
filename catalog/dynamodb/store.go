// Package dynamodb implements catalog.Catalog on a DynamoDB table.
//
// Table schema:
//   - Partition key: digest (string), the BLAKE3 digest of the input STL
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name stlindex-catalog \
//	  --attribute-definitions AttributeName=digest,AttributeType=S \
//	  --key-schema AttributeName=digest,KeyType=HASH \
//	  --billing-mode PAY_PER_REQUEST
package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hupe1980/stlindex/catalog"
)

// Client is the subset of the DynamoDB API used by Store.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

var _ catalog.Catalog = (*Store)(nil)

// Store is a DynamoDB backed catalog.
type Store struct {
	client    Client
	tableName string
}

// NewStore returns a Store on tableName.
func NewStore(client Client, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// Lookup implements catalog.Catalog.
func (s *Store) Lookup(ctx context.Context, digest string) (*catalog.Entry, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"digest": &types.AttributeValueMemberS{Value: digest},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: get %s: %w", digest, err)
	}
	if len(resp.Item) == 0 {
		return nil, catalog.ErrNotFound
	}
	return decodeEntry(resp.Item)
}

// Record implements catalog.Catalog with a conditional put, so only the
// first writer for a digest succeeds.
func (s *Store) Record(ctx context.Context, e catalog.Entry) error {
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                encodeEntry(e),
		ConditionExpression: aws.String("attribute_not_exists(digest)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return catalog.ErrExists
		}
		return fmt.Errorf("catalog: put %s: %w", e.Digest, err)
	}
	return nil
}

func encodeEntry(e catalog.Entry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"digest":     &types.AttributeValueMemberS{Value: e.Digest},
		"source":     &types.AttributeValueMemberS{Value: e.Source},
		"output":     &types.AttributeValueMemberS{Value: e.Output},
		"triangles":  &types.AttributeValueMemberN{Value: strconv.FormatUint(e.Triangles, 10)},
		"vertices":   &types.AttributeValueMemberN{Value: strconv.FormatUint(e.Vertices, 10)},
		"lower":      encodeVec(e.Lower),
		"upper":      encodeVec(e.Upper),
		"created_at": &types.AttributeValueMemberS{Value: e.CreatedAt.UTC().Format(time.RFC3339Nano)},
	}
}

// encodeVec stores coordinates as strings; the bounds of an empty mesh are
// infinite, which DynamoDB numbers cannot represent.
func encodeVec(v [3]float32) types.AttributeValue {
	l := make([]types.AttributeValue, 3)
	for i, f := range v {
		l[i] = &types.AttributeValueMemberS{Value: strconv.FormatFloat(float64(f), 'g', -1, 32)}
	}
	return &types.AttributeValueMemberL{Value: l}
}

func decodeEntry(item map[string]types.AttributeValue) (*catalog.Entry, error) {
	var (
		e   catalog.Entry
		err error
	)
	if e.Digest, err = stringAttr(item, "digest"); err != nil {
		return nil, err
	}
	if e.Source, err = stringAttr(item, "source"); err != nil {
		return nil, err
	}
	if e.Output, err = stringAttr(item, "output"); err != nil {
		return nil, err
	}
	if e.Triangles, err = uintAttr(item, "triangles"); err != nil {
		return nil, err
	}
	if e.Vertices, err = uintAttr(item, "vertices"); err != nil {
		return nil, err
	}
	if e.Lower, err = vecAttr(item, "lower"); err != nil {
		return nil, err
	}
	if e.Upper, err = vecAttr(item, "upper"); err != nil {
		return nil, err
	}

	created, err := stringAttr(item, "created_at")
	if err != nil {
		return nil, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("catalog: invalid created_at attribute: %w", err)
	}
	return &e, nil
}

func stringAttr(item map[string]types.AttributeValue, name string) (string, error) {
	v, ok := item[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("catalog: invalid %s attribute in DynamoDB", name)
	}
	return v.Value, nil
}

func uintAttr(item map[string]types.AttributeValue, name string) (uint64, error) {
	v, ok := item[name].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("catalog: invalid %s attribute in DynamoDB", name)
	}
	n, err := strconv.ParseUint(v.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("catalog: parse %s: %w", name, err)
	}
	return n, nil
}

func vecAttr(item map[string]types.AttributeValue, name string) ([3]float32, error) {
	var out [3]float32
	l, ok := item[name].(*types.AttributeValueMemberL)
	if !ok || len(l.Value) != 3 {
		return out, fmt.Errorf("catalog: invalid %s attribute in DynamoDB", name)
	}
	for i, av := range l.Value {
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return out, fmt.Errorf("catalog: invalid %s attribute in DynamoDB", name)
		}
		f, err := strconv.ParseFloat(s.Value, 32)
		if err != nil {
			return out, fmt.Errorf("catalog: parse %s: %w", name, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}
