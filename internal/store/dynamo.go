package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/haasonsaas/evaldeck/pkg/models"
)

// DefaultTableName is the evaluation table used when none is configured.
const DefaultTableName = "LLMAgentEvaluation"

// DynamoConfig configures the DynamoDB-backed record store.
type DynamoConfig struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// DefaultDynamoConfig returns the default configuration.
func DefaultDynamoConfig() *DynamoConfig {
	return &DynamoConfig{
		TableName: DefaultTableName,
		Region:    "us-east-1",
	}
}

// Configured reports whether the config carries enough to reach a table:
// either static credentials or an endpoint override (DynamoDB Local).
// Anything else is the valid "not configured" state in which callers run
// without a store and downgrade writes to skips.
func (c *DynamoConfig) Configured() bool {
	if c == nil {
		return false
	}
	if c.AccessKeyID != "" && c.SecretAccessKey != "" {
		return true
	}
	return strings.TrimSpace(c.Endpoint) != ""
}

// dynamoAPI is the subset of the DynamoDB client used by the store.
type dynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore stores evaluation records in a DynamoDB table.
type DynamoStore struct {
	client dynamoAPI
	table  string
	now    func() time.Time
}

var _ RecordStore = (*DynamoStore)(nil)

// NewDynamoStore creates a DynamoDB-backed record store. The client is
// constructed once here and reused for the process lifetime; it is
// stateless beyond connection configuration and safe to share.
func NewDynamoStore(ctx context.Context, cfg *DynamoConfig) (*DynamoStore, error) {
	if cfg == nil {
		cfg = DefaultDynamoConfig()
	}

	table := strings.TrimSpace(cfg.TableName)
	if table == "" {
		table = DefaultTableName
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	loadOptions := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return &DynamoStore{
		client: client,
		table:  table,
		now:    time.Now,
	}, nil
}

// Put persists an evaluation record, deriving its keys when unset.
func (s *DynamoStore) Put(ctx context.Context, record *models.EvaluationRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	deriveKeys(record, s.now)

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &s.table,
		Item:      item,
	}); err != nil {
		if tableMissing(err) {
			return fmt.Errorf("evaluation table %q does not exist: %w", s.table, err)
		}
		return fmt.Errorf("dynamo put item: %w", err)
	}
	return nil
}

// GetByKey fetches a single record by its composite key.
func (s *DynamoStore) GetByKey(ctx context.Context, pk, sk string) (*models.EvaluationRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &s.table,
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		if tableMissing(err) {
			return nil, fmt.Errorf("evaluation table %q does not exist: %w", s.table, err)
		}
		return nil, fmt.Errorf("dynamo get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var record models.EvaluationRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &record, nil
}

// ScanRecent scans up to limit records and sorts them by sort key
// descending client-side. The table has no secondary index on query text
// or time range, so this bounded scan is the recency approximation.
func (s *DynamoStore) ScanRecent(ctx context.Context, limit int32) (*ScanResult, error) {
	if limit <= 0 {
		limit = 50
	}
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: &s.table,
		Limit:     aws.Int32(limit),
	})
	if err != nil {
		if tableMissing(err) {
			return nil, fmt.Errorf("evaluation table %q does not exist: %w", s.table, err)
		}
		return nil, fmt.Errorf("dynamo scan: %w", err)
	}

	items := make([]*models.EvaluationRecord, 0, len(out.Items))
	for _, raw := range out.Items {
		var record models.EvaluationRecord
		if err := attributevalue.UnmarshalMap(raw, &record); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		items = append(items, &record)
	}

	SortByRecency(items)
	return &ScanResult{
		Items: items,
		Stats: ComputeStats(items),
	}, nil
}

// tableMissing reports the ResourceNotFoundException raised when the
// evaluation table has not been created.
func tableMissing(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && strings.EqualFold(apiErr.ErrorCode(), "ResourceNotFoundException")
}

// deriveKeys fills in PK and SK from the run id and current time when they
// are not already set. Ties in the same millisecond are kept as distinct
// writes only when the store key differs, matching the documented
// implementation-defined ordering for same-instant records.
func deriveKeys(record *models.EvaluationRecord, now func() time.Time) {
	if record.PK == "" {
		record.PK = models.PartitionKey(record.RunID)
	}
	if record.SK == "" {
		record.SK = models.SortKey(now())
	}
}
