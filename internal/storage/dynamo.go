package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"memphis-weekend-events/internal/models"
)

// DynamoEventStore persists events in a DynamoDB table keyed by event_id.
type DynamoEventStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoEventStore creates an event store against the given table.
func NewDynamoEventStore(client *dynamodb.Client, table string) *DynamoEventStore {
	return &DynamoEventStore{client: client, table: table}
}

func (s *DynamoEventStore) Add(ctx context.Context, evt *models.Event) error {
	item, err := attributevalue.MarshalMap(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store event %s: %w", evt.EventID, err)
	}
	return nil
}

func (s *DynamoEventStore) GetByID(ctx context.Context, id string) (*models.Event, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"event_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get event %s: %w", id, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var evt models.Event
	if err := attributevalue.UnmarshalMap(result.Item, &evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &evt, nil
}

// Search scans the table and filters in process. The dataset is one
// weekend's events for one city, so a scan stays small.
func (s *DynamoEventStore) Search(ctx context.Context, filter *EventFilter) ([]models.Event, error) {
	var events []models.Event
	var startKey map[string]types.AttributeValue

	for {
		result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(s.table),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan events: %w", err)
		}

		var page []models.Event
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal events: %w", err)
		}
		events = append(events, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}

	var filtered []models.Event
	for i := range events {
		if MatchesFilter(&events[i], filter) {
			filtered = append(filtered, events[i])
		}
	}
	sort.Slice(filtered, func(i, j int) bool {
		if filtered[i].Date != filtered[j].Date {
			return filtered[i].Date < filtered[j].Date
		}
		return filtered[i].EventID < filtered[j].EventID
	})
	return filtered, nil
}

func (s *DynamoEventStore) Update(ctx context.Context, evt *models.Event) error {
	// Put is an upsert; the full item replaces the stored one.
	return s.Add(ctx, evt)
}

func (s *DynamoEventStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"event_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete event %s: %w", id, err)
	}
	return nil
}

// DynamoWeatherStore persists daily forecasts keyed by forecast_date.
type DynamoWeatherStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoWeatherStore creates a weather store against the given table.
func NewDynamoWeatherStore(client *dynamodb.Client, table string) *DynamoWeatherStore {
	return &DynamoWeatherStore{client: client, table: table}
}

// ReplaceAll deletes every stored forecast before inserting the new set,
// keeping at most one row per date.
func (s *DynamoWeatherStore) ReplaceAll(ctx context.Context, forecasts []models.DailyForecast) error {
	existing, err := s.Search(ctx)
	if err != nil {
		return err
	}
	for _, f := range existing {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.table),
			Key: map[string]types.AttributeValue{
				"forecast_date": &types.AttributeValueMemberS{Value: f.ForecastDate},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to clear forecast %s: %w", f.ForecastDate, err)
		}
	}

	for i := range forecasts {
		item, err := attributevalue.MarshalMap(&forecasts[i])
		if err != nil {
			return fmt.Errorf("failed to marshal forecast: %w", err)
		}
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.table),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to store forecast %s: %w", forecasts[i].ForecastDate, err)
		}
	}
	return nil
}

func (s *DynamoWeatherStore) GetByDate(ctx context.Context, date string) (*models.DailyForecast, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"forecast_date": &types.AttributeValueMemberS{Value: date},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get forecast %s: %w", date, err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var forecast models.DailyForecast
	if err := attributevalue.UnmarshalMap(result.Item, &forecast); err != nil {
		return nil, fmt.Errorf("failed to unmarshal forecast: %w", err)
	}
	return &forecast, nil
}

func (s *DynamoWeatherStore) Search(ctx context.Context) ([]models.DailyForecast, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan forecasts: %w", err)
	}

	var forecasts []models.DailyForecast
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &forecasts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal forecasts: %w", err)
	}
	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].ForecastDate < forecasts[j].ForecastDate
	})
	return forecasts, nil
}

// DynamoRunLogStore persists run logs keyed by log_id.
type DynamoRunLogStore struct {
	client *dynamodb.Client
	table  string
}

// NewDynamoRunLogStore creates a run-log store against the given table.
func NewDynamoRunLogStore(client *dynamodb.Client, table string) *DynamoRunLogStore {
	return &DynamoRunLogStore{client: client, table: table}
}

func (s *DynamoRunLogStore) Add(ctx context.Context, log *models.RunLog) error {
	item, err := attributevalue.MarshalMap(log)
	if err != nil {
		return fmt.Errorf("failed to marshal run log: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to store run log %s: %w", log.LogID, err)
	}
	return nil
}

func (s *DynamoRunLogStore) Update(ctx context.Context, log *models.RunLog) error {
	return s.Add(ctx, log)
}

func (s *DynamoRunLogStore) Recent(ctx context.Context, limit int) ([]models.RunLog, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan run logs: %w", err)
	}

	var logs []models.RunLog
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &logs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run logs: %w", err)
	}
	sort.Slice(logs, func(i, j int) bool {
		return logs[i].RunDate.After(logs[j].RunDate)
	})
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func (s *DynamoRunLogStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"log_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to delete run log %s: %w", id, err)
	}
	return nil
}
