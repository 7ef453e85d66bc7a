package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dwikikusuma/cartd/internal/cart/app"
	"github.com/dwikikusuma/cartd/internal/cart/domain"
)

// API is the slice of the DynamoDB client the store uses. Tests fake it.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, opts ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Config holds explicit construction parameters. Region falls back to
// the default credentials chain; Endpoint enables DynamoDB Local.
type Config struct {
	Table    string
	Region   string
	Endpoint string
}

// Store keeps line items in a single table keyed PK=USER#<owner>,
// SK=PRODUCT#<product>. Upserts use an optimistic version check so a
// concurrent writer's effect is never overwritten silently.
type Store struct {
	client   API
	table    string
	attempts int
}

const casAttempts = 5

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Table == "" {
		return nil, fmt.Errorf("dynamo table required")
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewWithClient(client, cfg.Table), nil
}

func NewWithClient(client API, table string) *Store {
	return &Store{client: client, table: table, attempts: casAttempts}
}

type record struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	ItemID    string `dynamodbav:"ItemId"`
	OwnerID   string `dynamodbav:"ownerId"`
	ProductID string `dynamodbav:"productId"`
	Quantity  int64  `dynamodbav:"quantity"`
	UnitPrice int64  `dynamodbav:"price"`
	CreatedAt string `dynamodbav:"addedAt"`
	UpdatedAt string `dynamodbav:"updatedAt"`
	Version   int64  `dynamodbav:"version"`
}

func pk(ownerID string) string   { return "USER#" + ownerID }
func sk(productID string) string { return "PRODUCT#" + productID }

func keyAttrs(key domain.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk(key.OwnerID)},
		"SK": &types.AttributeValueMemberS{Value: sk(key.ProductID)},
	}
}

func toRecord(item domain.LineItem, version int64) record {
	return record{
		PK:        pk(item.OwnerID),
		SK:        sk(item.ProductID),
		ItemID:    item.ItemID,
		OwnerID:   item.OwnerID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Version:   version,
	}
}

func (r record) toDomain() (domain.LineItem, error) {
	created, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("addedAt %q: %v", r.CreatedAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("updatedAt %q: %v", r.UpdatedAt, err)
	}
	return domain.LineItem{
		ItemID:    r.ItemID,
		OwnerID:   r.OwnerID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
		CreatedAt: created,
		UpdatedAt: updated,
	}, nil
}

func (s *Store) ConditionalUpsert(ctx context.Context, key domain.Key, mutate func(existing *domain.LineItem) (domain.LineItem, error)) (domain.LineItem, error) {
	for attempt := 0; attempt < s.attempts; attempt++ {
		out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(s.table),
			Key:            keyAttrs(key),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return domain.LineItem{}, fmt.Errorf("%w: dynamo get: %v", app.ErrUnavailable, err)
		}

		var existing *domain.LineItem
		var version int64
		if len(out.Item) > 0 {
			var rec record
			if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
				return domain.LineItem{}, fmt.Errorf("%w: dynamo unmarshal: %v", app.ErrUnavailable, err)
			}
			cur, err := rec.toDomain()
			if err != nil {
				return domain.LineItem{}, fmt.Errorf("%w: dynamo decode: %v", app.ErrUnavailable, err)
			}
			existing = &cur
			version = rec.Version
		}

		next, err := mutate(existing)
		if err != nil {
			return domain.LineItem{}, err
		}

		attrs, err := attributevalue.MarshalMap(toRecord(next, version+1))
		if err != nil {
			return domain.LineItem{}, fmt.Errorf("%w: dynamo marshal: %v", app.ErrUnavailable, err)
		}

		put := &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      attrs,
		}
		if existing == nil {
			put.ConditionExpression = aws.String("attribute_not_exists(PK)")
		} else {
			put.ConditionExpression = aws.String("version = :v")
			put.ExpressionAttributeValues = map[string]types.AttributeValue{
				":v": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", version)},
			}
		}

		_, err = s.client.PutItem(ctx, put)
		if err == nil {
			return next, nil
		}
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			// Another writer won this round; re-read and re-apply.
			continue
		}
		return domain.LineItem{}, fmt.Errorf("%w: dynamo put: %v", app.ErrUnavailable, err)
	}
	return domain.LineItem{}, fmt.Errorf("%w: dynamo upsert contention on %s/%s", app.ErrUnavailable, key.OwnerID, key.ProductID)
}

func (s *Store) Get(ctx context.Context, key domain.Key) (domain.LineItem, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            keyAttrs(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: dynamo get: %v", app.ErrUnavailable, err)
	}
	if len(out.Item) == 0 {
		return domain.LineItem{}, app.ErrNotFound
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: dynamo unmarshal: %v", app.ErrUnavailable, err)
	}
	item, err := rec.toDomain()
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: dynamo decode: %v", app.ErrUnavailable, err)
	}
	return item, nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]domain.LineItem, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk(ownerID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: dynamo query: %v", app.ErrUnavailable, err)
	}
	items := make([]domain.LineItem, 0, len(out.Items))
	for _, raw := range out.Items {
		var rec record
		if err := attributevalue.UnmarshalMap(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: dynamo unmarshal: %v", app.ErrUnavailable, err)
		}
		item, err := rec.toDomain()
		if err != nil {
			return nil, fmt.Errorf("%w: dynamo decode: %v", app.ErrUnavailable, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) Delete(ctx context.Context, key domain.Key) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       keyAttrs(key),
	})
	if err != nil {
		return fmt.Errorf("%w: dynamo delete: %v", app.ErrUnavailable, err)
	}
	return nil
}
