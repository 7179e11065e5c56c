package dynamo

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableAPI is the subset of the DynamoDB client used to manage the table.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

var _ TableAPI = (*dynamodb.Client)(nil)

// TableInput returns the CreateTable request for the table described by
// config: on-demand billing, both indexes and a stream carrying old and new
// images.
func TableInput(config Config) *dynamodb.CreateTableInput {
	config.validate()
	return &dynamodb.CreateTableInput{
		TableName: aws.String(config.Table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPath), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrParent), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrGroup), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPath), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			{
				IndexName: aws.String(config.ParentIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(attrParent), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(attrPath), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
			{
				IndexName: aws.String(config.GroupIndex),
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(attrGroup), KeyType: types.KeyTypeHash},
					{AttributeName: aws.String(attrPath), KeyType: types.KeyTypeRange},
				},
				Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
			},
		},
		BillingMode: types.BillingModePayPerRequest,
		StreamSpecification: &types.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: types.StreamViewTypeNewAndOldImages,
		},
	}
}

// CreateTable creates the documents table and waits until it is active.
// An existing table is left untouched.
func CreateTable(ctx context.Context, api TableAPI, config Config, wait time.Duration) error {
	input := TableInput(config)
	_, err := api.CreateTable(ctx, input)
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return mapError(err)
		}
	}
	if wait <= 0 {
		return nil
	}
	waiter := dynamodb.NewTableExistsWaiter(api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, wait); err != nil {
		return mapError(err)
	}
	return nil
}

// DeleteTable deletes the documents table and waits until it is gone.
func DeleteTable(ctx context.Context, api TableAPI, config Config, wait time.Duration) error {
	config.validate()
	_, err := api.DeleteTable(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(config.Table)})
	if err != nil {
		return mapError(err)
	}
	if wait <= 0 {
		return nil
	}
	waiter := dynamodb.NewTableNotExistsWaiter(api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(config.Table)}, wait); err != nil {
		return mapError(err)
	}
	return nil
}

// StreamARN returns the latest stream ARN of the documents table.
func StreamARN(ctx context.Context, api TableAPI, table string) (string, error) {
	out, err := api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return "", mapError(err)
	}
	if out.Table == nil || out.Table.LatestStreamArn == nil {
		return "", errors.New("table " + table + " has no stream")
	}
	return *out.Table.LatestStreamArn, nil
}
