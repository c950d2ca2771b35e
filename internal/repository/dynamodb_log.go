package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"frontdesk/internal/domain"
)

const (
	pkPrefixSender = "SENDER#"
	skPrefixLog    = "LOG#"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoLog.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoLog stores interactions in a DynamoDB table keyed by sender.
type DynamoLog struct {
	api       dynamodbAPI
	tableName string
}

// NewDynamoLog creates a DynamoLog writing to tableName.
func NewDynamoLog(api dynamodbAPI, tableName string) (*DynamoLog, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &DynamoLog{api: api, tableName: tableName}, nil
}

// senderPK returns the partition key for a sender.
func senderPK(sender string) string {
	return pkPrefixSender + sender
}

// logSK orders records chronologically; the suffix keeps same-instant writes distinct.
func logSK(ts time.Time) string {
	return skPrefixLog + ts.UTC().Format(time.RFC3339Nano) + "#" + newUUID()
}

// Append writes one interaction record.
func (d *DynamoLog) Append(ctx context.Context, rec domain.Interaction) error {
	_, err := d.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                interactionItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: Append: %w", err)
	}
	return nil
}

// Read queries the sender's records newest first and returns them chronologically.
// An empty sender scans the whole table.
func (d *DynamoLog) Read(ctx context.Context, sender string, limit int) ([]domain.Interaction, error) {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return d.readAll(ctx, limit)
	}
	in := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: senderPK(sender)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixLog},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := d.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: Read query: %w", err)
	}

	recs := make([]domain.Interaction, 0, len(out.Items))
	for _, item := range out.Items {
		rec, err := itemToInteraction(item)
		if err != nil {
			return nil, fmt.Errorf("repository: Read unmarshal: %w", err)
		}
		recs = append(recs, rec)
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// readAll pages through every log record. The table has no cross-sender sort
// key, so ordering happens here.
func (d *DynamoLog) readAll(ctx context.Context, limit int) ([]domain.Interaction, error) {
	in := &dynamodb.ScanInput{
		TableName:        aws.String(d.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk) AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: pkPrefixSender},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixLog},
		},
	}

	recs := []domain.Interaction{}
	for {
		out, err := d.api.Scan(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: Read scan: %w", err)
		}
		for _, item := range out.Items {
			rec, err := itemToInteraction(item)
			if err != nil {
				return nil, fmt.Errorf("repository: Read unmarshal: %w", err)
			}
			recs = append(recs, rec)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return tail(recs, limit), nil
}

func interactionItem(rec domain.Interaction) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: senderPK(rec.Sender)},
		"SK":        &types.AttributeValueMemberS{Value: logSK(rec.Timestamp)},
		"sender":    &types.AttributeValueMemberS{Value: rec.Sender},
		"incoming":  &types.AttributeValueMemberS{Value: rec.Incoming},
		"reply":     &types.AttributeValueMemberS{Value: rec.Reply},
		"timestamp": &types.AttributeValueMemberS{Value: rec.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
}

func itemToInteraction(item map[string]types.AttributeValue) (domain.Interaction, error) {
	sender, err := strAttr(item, "sender")
	if err != nil {
		return domain.Interaction{}, err
	}
	raw, err := strAttr(item, "timestamp")
	if err != nil {
		return domain.Interaction{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("repository: parse attribute %q: %w", "timestamp", err)
	}
	incoming, _ := strAttr(item, "incoming") // allow empty
	reply, _ := strAttr(item, "reply")

	return domain.Interaction{
		Timestamp: ts,
		Sender:    sender,
		Incoming:  incoming,
		Reply:     reply,
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

var newUUID = func() string {
	return uuid.NewString()
}
