package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"memphis-weekend-events/internal/models"
)

// RetryConfig defines retry behavior for flaky network calls.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig matches the production AI retry policy.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  2 * time.Second,
		BackoffFactor: 2.0,
	}
}

const analyzerSystemPrompt = "You are an event categorization assistant. " +
	"Given an event's title, description, and location, respond with a JSON object containing exactly these fields: " +
	"is_indoor (boolean), is_outdoor (boolean), audience_type (one of: adults, family-friendly, all-ages), " +
	"categories (array of 1-3 strings), cost_level (one of: Free, $, $$, $$$, $$$$). " +
	"Respond with only the JSON object."

// EventAnalyzer classifies events through a chat-completion call. Failed or
// invalid analyses fall back to the default classification so a bad batch
// never aborts a run.
type EventAnalyzer struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	retry       RetryConfig
	callDelay   time.Duration
}

// NewEventAnalyzer creates an analyzer with production settings.
func NewEventAnalyzer(apiKey, model string, temperature float32, maxTokens int) *EventAnalyzer {
	return &EventAnalyzer{
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		retry:       DefaultRetryConfig(),
		callDelay:   500 * time.Millisecond,
	}
}

// NewEventAnalyzerWithConfig creates an analyzer against a custom endpoint,
// used by tests to point at a stub server.
func NewEventAnalyzerWithConfig(cfg openai.ClientConfig, model string) *EventAnalyzer {
	return &EventAnalyzer{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: 0.3,
		maxTokens:   500,
		retry:       RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffFactor: 1},
	}
}

// AnalyzeEvent classifies a single event, retrying with exponential backoff.
// After exhausting retries it returns the default classification and the
// underlying error for counting.
func (a *EventAnalyzer) AnalyzeEvent(ctx context.Context, evt *models.Event) (models.Classification, error) {
	var lastErr error
	delay := a.retry.InitialDelay

	for attempt := 0; attempt < a.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * a.retry.BackoffFactor)
		}

		result, err := a.classify(ctx, evt)
		if err == nil {
			return result, nil
		}
		lastErr = err
		log.Printf("[AI] attempt %d failed for %s: %v", attempt+1, evt.EventID, err)
	}

	return models.DefaultClassification(), &AIAnalysisError{EventID: evt.EventID, Cause: lastErr}
}

// AnalyzeEvents classifies a batch, applying the fixed inter-call delay for
// rate limiting. It returns the number of successful analyses; failures are
// written back as defaults.
func (a *EventAnalyzer) AnalyzeEvents(ctx context.Context, events []models.Event) ([]models.Classification, int) {
	results := make([]models.Classification, len(events))
	analyzed := 0

	for i := range events {
		if i > 0 && a.callDelay > 0 {
			time.Sleep(a.callDelay)
		}
		result, err := a.AnalyzeEvent(ctx, &events[i])
		results[i] = result
		if err == nil {
			analyzed++
		}
	}

	log.Printf("[AI] analyzed %d/%d events", analyzed, len(events))
	return results, analyzed
}

func (a *EventAnalyzer) classify(ctx context.Context, evt *models.Event) (models.Classification, error) {
	userPrompt := fmt.Sprintf("Title: %s\nDescription: %s\nLocation: %s\nCost: %s",
		evt.Title, evt.Description, evt.Location, evt.CostRaw)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return models.Classification{}, fmt.Errorf("chat completion returned no choices")
	}

	return parseClassification(resp.Choices[0].Message.Content)
}

// parseClassification decodes and validates the model's JSON answer,
// coercing out-of-vocabulary values back to safe defaults.
func parseClassification(content string) (models.Classification, error) {
	cleaned := cleanJSONResponse(content)

	var result models.Classification
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return models.Classification{}, fmt.Errorf("invalid classification JSON: %w", err)
	}

	if !models.ValidateAudienceType(result.AudienceType) {
		result.AudienceType = models.AudienceAllAges
	}
	if !models.ValidateCostLevel(result.CostLevel) {
		result.CostLevel = models.CostCheap
	}

	var categories []string
	for _, c := range result.Categories {
		if models.ValidateCategory(c) {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		categories = []string{"Other"}
	}
	if len(categories) > 3 {
		categories = categories[:3]
	}
	result.Categories = categories

	return result, nil
}

// cleanJSONResponse strips markdown code fences some models wrap around
// JSON answers.
func cleanJSONResponse(content string) string {
	cleaned := strings.TrimSpace(content)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
