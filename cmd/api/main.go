package main

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	lambdaclient "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"memphis-weekend-events/internal/config"
	"memphis-weekend-events/internal/services"
	"memphis-weekend-events/internal/storage"
)

// ResponseBody is the envelope for every API answer.
type ResponseBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

var (
	queryService        *services.QueryService
	lambdaClient        *lambdaclient.Client
	refreshFunctionName string
)

func init() {
	cfg := config.Load()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	eventStore := storage.NewDynamoEventStore(dynamoClient, cfg.EventsTable)
	weatherStore := storage.NewDynamoWeatherStore(dynamoClient, cfg.WeatherTable)
	runLogStore := storage.NewDynamoRunLogStore(dynamoClient, cfg.RunLogsTable)

	// Refreshes run in the dedicated Lambda, not in the API process.
	queryService = services.NewQueryService(eventStore, weatherStore, runLogStore, cfg.Scoring, nil)

	lambdaClient = lambdaclient.NewFromConfig(awsCfg)
	refreshFunctionName = cfg.RefreshFunctionName
}

func handleRequest(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	headers := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		"Content-Type":                 "application/json",
	}

	if request.HTTPMethod == "OPTIONS" {
		return events.APIGatewayProxyResponse{StatusCode: 200, Headers: headers}, nil
	}

	log.Printf("[API] %s %s", request.HTTPMethod, request.Path)

	var body ResponseBody
	var status int

	switch {
	case request.HTTPMethod == "GET" && request.Path == "/events":
		body, status = handleGetEvents(ctx, request.QueryStringParameters)
	case request.HTTPMethod == "GET" && request.Path == "/events/search":
		body, status = handleSearchEvents(ctx, request.QueryStringParameters)
	case request.HTTPMethod == "GET" && request.Path == "/weather":
		body, status = handleGetWeather(ctx)
	case request.HTTPMethod == "GET" && request.Path == "/refresh/status":
		body, status = handleRefreshStatus(ctx)
	case request.HTTPMethod == "POST" && request.Path == "/refresh":
		body, status = handleTriggerRefresh(ctx)
	default:
		body, status = ResponseBody{Success: false, Error: "not found"}, 404
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{StatusCode: 500, Headers: headers, Body: `{"success":false,"error":"encoding failure"}`}, nil
	}
	return events.APIGatewayProxyResponse{StatusCode: status, Headers: headers, Body: string(payload)}, nil
}

func parseFilter(params map[string]string) *storage.EventFilter {
	filter := &storage.EventFilter{}
	if v := params["day"]; v != "" {
		filter.Days = strings.Split(v, ",")
	}
	if v := params["cost"]; v != "" {
		filter.CostLevels = strings.Split(v, ",")
	}
	if v := params["category"]; v != "" {
		filter.Categories = strings.Split(v, ",")
	}
	if v := params["audience"]; v != "" {
		filter.AudienceTypes = strings.Split(v, ",")
	}
	if v := params["indoor"]; v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsIndoor = &b
		}
	}
	if v := params["outdoor"]; v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsOutdoor = &b
		}
	}
	return filter
}

func handleGetEvents(ctx context.Context, params map[string]string) (ResponseBody, int) {
	views, err := queryService.GetFilteredEvents(ctx, parseFilter(params), params["sort"])
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 500
	}
	return ResponseBody{Success: true, Data: views}, 200
}

func handleSearchEvents(ctx context.Context, params map[string]string) (ResponseBody, int) {
	text := params["q"]
	if text == "" {
		return ResponseBody{Success: false, Error: "missing query parameter q"}, 400
	}
	views, err := queryService.SearchEvents(ctx, text, parseFilter(params))
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 500
	}
	return ResponseBody{Success: true, Data: views}, 200
}

func handleGetWeather(ctx context.Context) (ResponseBody, int) {
	summaries, err := queryService.GetWeatherData(ctx)
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 500
	}
	return ResponseBody{Success: true, Data: summaries}, 200
}

func handleRefreshStatus(ctx context.Context) (ResponseBody, int) {
	status, err := queryService.GetRefreshStatus(ctx)
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 500
	}
	return ResponseBody{Success: true, Data: status}, 200
}

// handleTriggerRefresh invokes the refresh Lambda asynchronously so the API
// answers immediately.
func handleTriggerRefresh(ctx context.Context) (ResponseBody, int) {
	if refreshFunctionName == "" {
		return ResponseBody{Success: false, Error: "refresh function is not configured"}, 503
	}

	payload, _ := json.Marshal(map[string]string{
		"source":       "api",
		"trigger-type": "manual",
	})
	_, err := lambdaClient.Invoke(ctx, &lambdaclient.InvokeInput{
		FunctionName:   aws.String(refreshFunctionName),
		InvocationType: lambdatypes.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return ResponseBody{Success: false, Error: err.Error()}, 500
	}

	return ResponseBody{Success: true, Data: map[string]interface{}{
		"accepted":   true,
		"started_at": time.Now().Format(time.RFC3339),
	}}, 202
}

func main() {
	lambda.Start(handleRequest)
}
