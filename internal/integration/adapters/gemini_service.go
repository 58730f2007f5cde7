// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/finance-tracker/recurring/internal/application/adapter"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiService implements the adapter.LabelService interface using Google Gemini.
type GeminiService struct {
	apiKey    string
	modelName string
	timeout   time.Duration
}

// NewGeminiService creates a new Gemini service instance.
func NewGeminiService(apiKey, modelName string, timeout time.Duration) *GeminiService {
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &GeminiService{
		apiKey:    apiKey,
		modelName: modelName,
		timeout:   timeout,
	}
}

// IsAvailable checks if the Gemini service is available and properly configured.
func (s *GeminiService) IsAvailable() bool {
	return s.apiKey != ""
}

// SuggestLabel asks Gemini for a category label of a bill pattern or one-time expense.
func (s *GeminiService) SuggestLabel(ctx context.Context, request *adapter.LabelRequest) (*adapter.LabelSuggestion, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("gemini service is not configured")
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// Create client
	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(s.modelName)

	// Configure model for JSON output
	model.SetTemperature(0.2)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildLabelPrompt(request)))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	suggestion, err := parseLabelResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return suggestion, nil
}

// buildLabelPrompt creates the prompt for Gemini.
func buildLabelPrompt(request *adapter.LabelRequest) string {
	var sb strings.Builder

	sb.WriteString("You label personal finance expenses with a short spending category such as ")
	sb.WriteString("\"Streaming\", \"Utilities\", \"Insurance\", \"Rent\", \"Groceries\" or \"Dining\".\n\n")
	fmt.Fprintf(&sb, "Label this %s:\n", request.Subject)
	if request.Name != "" {
		fmt.Fprintf(&sb, "- Name: %s\n", request.Name)
	}
	if request.MerchantKey != "" {
		fmt.Fprintf(&sb, "- Merchant: %s\n", request.MerchantKey)
	}
	if request.Description != "" {
		fmt.Fprintf(&sb, "- Description: %s\n", request.Description)
	}
	if request.Amount != "" {
		fmt.Fprintf(&sb, "- Amount: %s\n", request.Amount)
	}
	if request.Frequency != "" {
		fmt.Fprintf(&sb, "- Frequency: %s\n", request.Frequency)
	}

	sb.WriteString(`
Respond with a single JSON object and nothing else:
{"category": "<category name>", "confidence": <number between 0 and 1>, "reasoning": "<one sentence>"}`)

	return sb.String()
}

// parseLabelResponse parses the Gemini response into a LabelSuggestion.
func parseLabelResponse(resp *genai.GenerateContentResponse) (*adapter.LabelSuggestion, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from gemini")
	}

	// Get the text content from the response
	var textContent string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			textContent = string(text)
			break
		}
	}

	return decodeLabel(textContent)
}

func decodeLabel(textContent string) (*adapter.LabelSuggestion, error) {
	// Clean the response (remove markdown code blocks if present)
	textContent = strings.TrimSpace(textContent)
	textContent = strings.TrimPrefix(textContent, "```json")
	textContent = strings.TrimPrefix(textContent, "```")
	textContent = strings.TrimSuffix(textContent, "```")
	textContent = strings.TrimSpace(textContent)

	if textContent == "" {
		return nil, fmt.Errorf("no text content in response")
	}

	var suggestion adapter.LabelSuggestion
	if err := json.Unmarshal([]byte(textContent), &suggestion); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w, content: %s", err, textContent)
	}

	suggestion.Category = strings.TrimSpace(suggestion.Category)
	if suggestion.Category == "" {
		return nil, fmt.Errorf("response has no category")
	}
	if suggestion.Confidence < 0 {
		suggestion.Confidence = 0
	}
	if suggestion.Confidence > 1 {
		suggestion.Confidence = 1
	}
	return &suggestion, nil
}
