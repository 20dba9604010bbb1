package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/services"
	"memphis-weekend-events/internal/storage"
)

// RefreshEvent is the EventBridge trigger payload.
type RefreshEvent struct {
	Source      string `json:"source,omitempty"`
	TriggerType string `json:"trigger-type,omitempty"` // manual, scheduled
}

// RefreshResponse is returned to the invoking scheduler.
type RefreshResponse struct {
	Success bool                 `json:"success"`
	Summary *services.RunSummary `json:"summary,omitempty"`
	Error   string               `json:"error,omitempty"`
}

var orchestrator *services.Orchestrator

func init() {
	cfg := config.Load()

	// A refresh cannot do anything useful without these, so fail at startup
	// rather than partway through a run.
	openWeatherKey, err := config.GetSecret("OPENWEATHER_API_KEY")
	if err != nil {
		log.Fatalf("Refresh cannot start: %v", err)
	}
	openAIKey, err := config.GetSecret("OPENAI_API_KEY")
	if err != nil {
		log.Fatalf("Refresh cannot start: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	eventStore := storage.NewDynamoEventStore(dynamoClient, cfg.EventsTable)
	weatherStore := storage.NewDynamoWeatherStore(dynamoClient, cfg.WeatherTable)
	runLogStore := storage.NewDynamoRunLogStore(dynamoClient, cfg.RunLogsTable)

	fetcher := services.NewFallbackFetcher(
		services.NewFirecrawlClient(cfg.FirecrawlAPIKey),
		services.NewDirectFetcher(),
	)
	parser := services.NewEnrichingParser(fetcher)
	weather := services.NewOpenWeatherClient(openWeatherKey, cfg.Latitude, cfg.Longitude)
	analyzer := services.NewEventAnalyzer(openAIKey, cfg.OpenAIModel, cfg.OpenAITemperature, cfg.OpenAIMaxTokens)

	var publisher services.EventPublisher
	if cfg.S3Bucket != "" {
		p, err := services.NewS3Publisher(context.TODO(), cfg.S3Bucket, cfg.SourceURL)
		if err != nil {
			log.Printf("[INIT] S3 publisher unavailable, snapshots disabled: %v", err)
		} else {
			publisher = p
		}
	}

	orchestrator = services.NewOrchestrator(
		fetcher, parser, weather, analyzer, publisher,
		eventStore, weatherStore, runLogStore,
		cfg.SourceURL, cfg.Scoring,
	)
}

func handleRequest(ctx context.Context, event RefreshEvent) (RefreshResponse, error) {
	log.Printf("[LAMBDA] refresh triggered (source: %s, type: %s)", event.Source, event.TriggerType)

	summary, err := orchestrator.Run(ctx)
	if err != nil {
		// The failure is already recorded in the run log; returning the
		// error also marks the invocation failed for scheduler alarms.
		return RefreshResponse{Success: false, Error: err.Error()}, err
	}
	return RefreshResponse{Success: true, Summary: summary}, nil
}

func main() {
	lambda.Start(handleRequest)
}
