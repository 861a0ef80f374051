// Package repository persists closed calls and processed-event marks in a
// DynamoDB single table. Each call is one partition: the archived record, a
// meta item, and one mark per delivered transcript event.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"avos/internal/domain"
)

const (
	skRecord    = "REC#"
	skMeta      = "META#"
	skPrefixEvt = "EVT#"
	ttlDuration = 30 * 24 * time.Hour // 30-day TTL
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client wraps a DynamoDB table for call archival and event idempotency.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// callPK returns the DynamoDB partition key for a call.
func callPK(callID string) string {
	return "CALL#" + callID
}

// evtSK returns the sort key for a processed-event mark. Sequences are
// zero-padded so marks sort numerically within the partition.
func evtSK(sequence int64) string {
	return fmt.Sprintf("%s%012d", skPrefixEvt, sequence)
}

// ttlValue returns a Unix timestamp 30 days in the future.
func ttlValue() int64 {
	return time.Now().Add(ttlDuration).Unix()
}

// SaveCallRecord writes the closed-call record and its meta item in one
// transaction. A second save for the same call fails the record's condition,
// which keeps the first archive authoritative.
func (c *Client) SaveCallRecord(ctx context.Context, rec domain.CallRecord, meta domain.CallMeta) error {
	if rec.PK == "" || rec.SK == "" {
		return errors.New("repository: SaveCallRecord: record PK and SK are required")
	}
	if meta.PK == "" || meta.SK == "" {
		return errors.New("repository: SaveCallRecord: meta PK and SK are required")
	}

	recItem, err := recordItem(rec)
	if err != nil {
		return fmt.Errorf("repository: SaveCallRecord: %w", err)
	}

	_, err = c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                recItem,
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Put: &types.Put{
					TableName: aws.String(c.tableName),
					Item:      metaItem(meta),
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveCallRecord: %w", err)
	}
	return nil
}

// GetCallRecord fetches the archived record for a call. The second return is
// false when the call was never archived.
func (c *Client) GetCallRecord(ctx context.Context, callID string) (domain.CallRecord, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: callPK(callID)},
			"SK": &types.AttributeValueMemberS{Value: skRecord},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.CallRecord{}, false, fmt.Errorf("repository: GetCallRecord get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.CallRecord{}, false, nil
	}
	rec, err := itemToRecord(out.Item)
	if err != nil {
		return domain.CallRecord{}, false, fmt.Errorf("repository: GetCallRecord unmarshal: %w", err)
	}
	return rec, true, nil
}

// WasProcessed reports whether a transcript event was already handled by any
// process. Reads are consistent so a redelivery racing its original sees the
// mark.
func (c *Client) WasProcessed(ctx context.Context, callID string, sequence int64) (bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: callPK(callID)},
			"SK": &types.AttributeValueMemberS{Value: evtSK(sequence)},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, fmt.Errorf("repository: WasProcessed get item: %w", err)
	}
	return out != nil && len(out.Item) > 0, nil
}

// MarkProcessed records that a transcript event has been handled. Losing the
// conditional race to another process is not an error; the mark exists either
// way.
func (c *Client) MarkProcessed(ctx context.Context, callID string, sequence int64) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item: map[string]types.AttributeValue{
			"PK":          &types.AttributeValueMemberS{Value: callPK(callID)},
			"SK":          &types.AttributeValueMemberS{Value: evtSK(sequence)},
			"callId":      &types.AttributeValueMemberS{Value: callID},
			"processedAt": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			"ttl":         &types.AttributeValueMemberN{Value: strconv.FormatInt(ttlValue(), 10)},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
		return fmt.Errorf("repository: MarkProcessed: %w", err)
	}
	return nil
}

// ArchiveCall fills in the storage keys for rec and writes it with its meta
// item in one transaction.
func (c *Client) ArchiveCall(ctx context.Context, rec domain.CallRecord, turns int) error {
	if rec.CallID == "" {
		return errors.New("repository: ArchiveCall: call id is required")
	}
	base := NewCallRecord(rec.CallID)
	rec.PK, rec.SK, rec.TTL = base.PK, base.SK, base.TTL
	if err := c.SaveCallRecord(ctx, rec, NewCallMeta(rec.CallID, turns)); err != nil {
		return fmt.Errorf("repository: ArchiveCall: %w", err)
	}
	return nil
}

// NewCallRecord constructs a CallRecord with PK/SK/TTL set for its call.
func NewCallRecord(callID string) domain.CallRecord {
	return domain.CallRecord{
		PK:     callPK(callID),
		SK:     skRecord,
		CallID: callID,
		TTL:    ttlValue(),
	}
}

// NewCallMeta constructs a CallMeta record.
func NewCallMeta(callID string, turns int) domain.CallMeta {
	return domain.CallMeta{
		PK:           callPK(callID),
		SK:           skMeta,
		CallID:       callID,
		LastActivity: time.Now().UTC().Format(time.RFC3339),
		Turns:        turns,
		TTL:          ttlValue(),
	}
}

// recordItem converts a CallRecord to a DynamoDB attribute map. The cart and
// transcript are stored as JSON documents; nothing queries inside them.
func recordItem(rec domain.CallRecord) (map[string]types.AttributeValue, error) {
	items, err := json.Marshal(rec.Items)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	transcript, err := json.Marshal(rec.Transcript)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	return map[string]types.AttributeValue{
		"PK":            &types.AttributeValueMemberS{Value: rec.PK},
		"SK":            &types.AttributeValueMemberS{Value: rec.SK},
		"callId":        &types.AttributeValueMemberS{Value: rec.CallID},
		"restaurantId":  &types.AttributeValueMemberS{Value: rec.RestaurantID},
		"customerPhone": &types.AttributeValueMemberS{Value: rec.CustomerPhone},
		"language":      &types.AttributeValueMemberS{Value: string(rec.Language)},
		"finalState":    &types.AttributeValueMemberS{Value: string(rec.FinalState)},
		"outcome":       &types.AttributeValueMemberS{Value: rec.Outcome},
		"items":         &types.AttributeValueMemberS{Value: string(items)},
		"subtotalCents": &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.SubtotalCents, 10)},
		"transcript":    &types.AttributeValueMemberS{Value: string(transcript)},
		"startedAt":     &types.AttributeValueMemberS{Value: rec.StartedAt.UTC().Format(time.RFC3339Nano)},
		"endedAt":       &types.AttributeValueMemberS{Value: rec.EndedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":           &types.AttributeValueMemberN{Value: strconv.FormatInt(rec.TTL, 10)},
	}, nil
}

func metaItem(meta domain.CallMeta) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           &types.AttributeValueMemberS{Value: meta.PK},
		"SK":           &types.AttributeValueMemberS{Value: meta.SK},
		"callId":       &types.AttributeValueMemberS{Value: meta.CallID},
		"lastActivity": &types.AttributeValueMemberS{Value: meta.LastActivity},
		"turns":        &types.AttributeValueMemberN{Value: strconv.Itoa(meta.Turns)},
		"ttl":          &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.TTL, 10)},
	}
}

// itemToRecord converts a DynamoDB attribute map to a CallRecord.
func itemToRecord(item map[string]types.AttributeValue) (domain.CallRecord, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.CallRecord{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.CallRecord{}, err
	}
	callID, err := strAttr(item, "callId")
	if err != nil {
		return domain.CallRecord{}, err
	}
	restaurantID, _ := strAttr(item, "restaurantId")
	phone, _ := strAttr(item, "customerPhone")
	language, _ := strAttr(item, "language")
	finalState, _ := strAttr(item, "finalState")
	outcome, _ := strAttr(item, "outcome")

	rec := domain.CallRecord{
		PK:            pk,
		SK:            sk,
		CallID:        callID,
		RestaurantID:  restaurantID,
		CustomerPhone: phone,
		Language:      domain.Language(language),
		FinalState:    domain.CallState(finalState),
		Outcome:       outcome,
	}

	if raw, err := strAttr(item, "items"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Items); err != nil {
			return domain.CallRecord{}, fmt.Errorf("unmarshal items: %w", err)
		}
	}
	if raw, err := strAttr(item, "transcript"); err == nil && raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Transcript); err != nil {
			return domain.CallRecord{}, fmt.Errorf("unmarshal transcript: %w", err)
		}
	}
	if n, err := int64Attr(item, "subtotalCents"); err == nil {
		rec.SubtotalCents = n
	}
	if raw, err := strAttr(item, "startedAt"); err == nil {
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	if raw, err := strAttr(item, "endedAt"); err == nil {
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, raw)
	}
	return rec, nil
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

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
