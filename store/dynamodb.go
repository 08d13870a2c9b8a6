package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient defines the DynamoDB operations used by the store, enabling mock injection for testing.
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

var _ Store = (*DynamoDB)(nil)

// DynamoDB stores items in a table with string hash key "pk" and range key "sk".
// The table's TTL attribute is expected to be expires_at; expiry enforcement is left to DynamoDB.
type DynamoDB struct {
	client DynamoDBClient
	table  string
}

// NewDynamoDB creates a DynamoDB store using the default AWS credential chain.
func NewDynamoDB(ctx context.Context, region, table string) (*DynamoDB, error) {
	if table == "" {
		return nil, errors.New("dynamodb table name is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDynamoDBWithClient(dynamodb.NewFromConfig(cfg), table), nil
}

// NewDynamoDBWithClient wraps a pre-configured client.
func NewDynamoDBWithClient(client DynamoDBClient, table string) *DynamoDB {
	return &DynamoDB{client: client, table: table}
}

func dynamoKey(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

func (d *DynamoDB) Get(ctx context.Context, key Key, out any) error {
	if err := key.validate(); err != nil {
		return err
	}
	resp, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            dynamoKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(resp.Item) == 0 {
		return ErrNotFound
	}

	attrs := Attributes{}
	if err := attributevalue.UnmarshalMap(resp.Item, &attrs); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return decode(attrs, out)
}

func (d *DynamoDB) putInput(key Key, item any) (*dynamodb.PutItemInput, error) {
	attrs, err := toAttributes(key, item)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      av,
	}, nil
}

func (d *DynamoDB) Put(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	input, err := d.putInput(key, item)
	if err != nil {
		return err
	}
	if _, err := d.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (d *DynamoDB) PutIfAbsent(ctx context.Context, key Key, item any) error {
	if err := key.validate(); err != nil {
		return err
	}
	input, err := d.putInput(key, item)
	if err != nil {
		return err
	}
	input.ConditionExpression = aws.String("attribute_not_exists(pk)")

	if _, err := d.client.PutItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return ErrConditionFailed
		}
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (d *DynamoDB) Update(ctx context.Context, key Key, fields map[string]any) error {
	if err := key.validate(); err != nil {
		return err
	}
	patch, err := normalize(fields)
	if err != nil {
		return err
	}
	delete(patch, AttrPK)
	delete(patch, AttrSK)
	if len(patch) == 0 {
		return nil
	}

	names := make([]string, 0, len(patch))
	for name := range patch {
		names = append(names, name)
	}
	sort.Strings(names)

	exprNames := make(map[string]string, len(names))
	exprValues := make(map[string]types.AttributeValue, len(names))
	expr := "SET "
	for i, name := range names {
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":v%d", i)
		av, err := attributevalue.Marshal(patch[name])
		if err != nil {
			return fmt.Errorf("failed to marshal %s.%s: %w", key, name, err)
		}
		exprNames[n] = name
		exprValues[v] = av
		if i > 0 {
			expr += ", "
		}
		expr += n + " = " + v
	}

	_, err = d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(d.table),
		Key:                       dynamoKey(key),
		UpdateExpression:          aws.String(expr),
		ConditionExpression:       aws.String("attribute_exists(pk)"),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update %s: %w", key, err)
	}
	return nil
}

func (d *DynamoDB) Delete(ctx context.Context, key Key) error {
	if err := key.validate(); err != nil {
		return err
	}
	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.table),
		Key:       dynamoKey(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
