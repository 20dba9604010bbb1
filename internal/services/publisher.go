package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"memphis-weekend-events/internal/dates"
	"memphis-weekend-events/internal/models"
)

// S3Publisher uploads the scored events dataset to S3 as a JSON snapshot
// after each successful refresh, so static frontends can read it without
// touching the database.
type S3Publisher struct {
	client    *s3.Client
	bucket    string
	sourceURL string
}

// PublishResult describes one uploaded snapshot.
type PublishResult struct {
	Key        string    `json:"key"`
	Size       int       `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewS3Publisher creates a publisher using the default AWS config chain.
func NewS3Publisher(ctx context.Context, bucket, sourceURL string) (*S3Publisher, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Publisher{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		sourceURL: sourceURL,
	}, nil
}

// PublishEvents uploads the event set under both a dated key and the stable
// "latest" key.
func (p *S3Publisher) PublishEvents(ctx context.Context, events []models.Event, weekend dates.WeekendDates) (*PublishResult, error) {
	output := models.EventsOutput{
		Metadata: models.EventsMetadata{
			LastUpdated: time.Now(),
			TotalEvents: len(events),
			SourceURL:   p.sourceURL,
			Weekend:     weekend.Dates(),
			Version:     "1.0.0",
			City:        "Memphis, TN",
		},
		Events: events,
	}

	jsonData, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal events to JSON: %w", err)
	}

	datedKey := fmt.Sprintf("events/%s.json", weekend.Friday)
	for _, key := range []string{datedKey, "events/latest.json"} {
		_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(p.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(jsonData),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to upload %s: %w", key, err)
		}
	}

	log.Printf("[PUBLISH] uploaded %d events (%d bytes) to s3://%s/%s",
		len(events), len(jsonData), p.bucket, datedKey)
	return &PublishResult{Key: datedKey, Size: len(jsonData), UploadedAt: time.Now()}, nil
}
