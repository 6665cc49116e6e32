package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olprint/storefront/core"
	"github.com/olprint/storefront/resilience"
)

const (
	// DefaultBaseURL is the default hosted API endpoint
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// Client implements core.AIStreamer against the hosted generative API.
// Non-streaming calls go through retry and circuit breaker protection;
// streaming calls retry connection establishment only.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string

	defaultModel string
	imageModel   string
	videoModel   string

	logger    core.Logger
	telemetry core.Telemetry
	breaker   *resilience.CircuitBreaker
	retry     core.RetryConfig
}

// NewClient creates a client from the application configuration
func NewClient(cfg *core.Config, logger core.Logger) *Client {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	baseURL := cfg.AI.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.AI.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		apiKey:       cfg.AI.APIKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		defaultModel: cfg.AI.Model,
		imageModel:   cfg.AI.ImageModel,
		videoModel:   cfg.AI.VideoModel,
		logger:       logger,
		telemetry:    &core.NoOpTelemetry{},
		retry:        cfg.Resilience.Retry,
	}

	if cfg.Resilience.CircuitBreaker.Enabled {
		c.breaker = resilience.NewCircuitBreaker("genai", cfg.Resilience.CircuitBreaker, logger)
	}
	return c
}

// SetTelemetry attaches a tracing provider. Optional; spans are no-ops
// until set.
func (c *Client) SetTelemetry(t core.Telemetry) {
	if t != nil {
		c.telemetry = t
	}
}

// GenerateContent generates a single-shot completion
func (c *Client) GenerateContent(ctx context.Context, messages []core.AIMessage, options *core.AIOptions) (*core.AIResponse, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "ai.generate_content")
	defer span.End()

	options = c.applyDefaults(options)
	span.SetAttribute("ai.model", options.Model)
	span.SetAttribute("ai.message_count", len(messages))

	if c.apiKey == "" {
		c.logger.Error("Generate request failed - API key not configured", map[string]interface{}{
			"operation": "ai_request_error",
			"error":     "api_key_missing",
		})
		err := fmt.Errorf("%w: AI API key not configured", core.ErrMissingConfiguration)
		span.RecordError(err)
		return nil, err
	}

	reqBody := c.buildRequest(messages, options)
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logRequest(options.Model, len(messages))
	startTime := time.Now()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, options.Model, c.apiKey)

	body, statusCode, err := c.executeWithResilience(ctx, url, jsonData)
	if err != nil {
		c.logger.Error("Generate request failed - send error", map[string]interface{}{
			"operation": "ai_request_error",
			"model":     options.Model,
			"error":     err.Error(),
			"phase":     "request_execution",
		})
		span.RecordError(err)
		return nil, err
	}
	if statusCode != http.StatusOK {
		apiErr := c.HandleError(statusCode, body)
		c.logger.Error("Generate request failed - API error", map[string]interface{}{
			"operation":   "ai_request_error",
			"model":       options.Model,
			"status_code": statusCode,
			"phase":       "api_response",
		})
		span.RecordError(apiErr)
		span.SetAttribute("http.status_code", statusCode)
		return nil, apiErr
	}

	var apiResp GenerateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result, err := c.parseResponse(&apiResp, options.Model)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttribute("ai.total_tokens", result.Usage.TotalTokens)
	span.SetAttribute("ai.response_length", len(result.Content))
	c.logResponse(options.Model, result.Usage, time.Since(startTime))

	return result, nil
}

// executeWithResilience runs one POST under retry and (when enabled)
// circuit breaker protection. Client errors other than 429 are returned
// without retrying.
func (c *Client) executeWithResilience(ctx context.Context, url string, jsonData []byte) ([]byte, int, error) {
	var body []byte
	var statusCode int

	call := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", core.ErrConnectionFailed, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		statusCode = resp.StatusCode

		// Retry server errors and rate limits; hand anything else back
		if statusCode >= 500 || statusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: status %d", core.ErrRequestFailed, statusCode)
		}
		return nil
	}

	var err error
	if c.breaker != nil {
		err = resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, call)
	} else {
		err = resilience.Retry(ctx, c.retry, call)
	}
	if err != nil {
		// A terminal 5xx/429 still produced a body worth reporting
		if statusCode >= 400 && body != nil {
			return body, statusCode, nil
		}
		return nil, 0, err
	}
	return body, statusCode, nil
}

// buildRequest converts neutral messages and options to the wire format
func (c *Client) buildRequest(messages []core.AIMessage, options *core.AIOptions) *GenerateRequest {
	contents := make([]Content, 0, len(messages))
	for _, msg := range messages {
		role := msg.Role
		if role == "" {
			role = "user"
		}

		var parts []Part
		switch {
		case msg.FunctionCall != nil:
			parts = append(parts, Part{FunctionCall: &FunctionCall{
				ID:   msg.FunctionCall.ID,
				Name: msg.FunctionCall.Name,
				Args: msg.FunctionCall.Args,
			}})
		case msg.FunctionResult != nil:
			parts = append(parts, Part{FunctionResponse: &FunctionResponse{
				ID:       msg.FunctionResult.ID,
				Name:     msg.FunctionResult.Name,
				Response: map[string]interface{}{"result": msg.FunctionResult.Content},
			}})
		default:
			parts = append(parts, Part{Text: msg.Text})
		}
		contents = append(contents, Content{Role: role, Parts: parts})
	}

	reqBody := &GenerateRequest{
		Contents: contents,
		GenerationConfig: &GenerationConfig{
			Temperature:     options.Temperature,
			MaxOutputTokens: options.MaxTokens,
		},
	}

	if options.SystemPrompt != "" {
		reqBody.SystemInstruction = &SystemInstruction{
			Parts: []Part{{Text: options.SystemPrompt}},
		}
	}

	if len(options.Tools) > 0 {
		decls := make([]FunctionDeclaration, 0, len(options.Tools))
		for _, tool := range options.Tools {
			decls = append(decls, declarationFromTool(tool))
		}
		reqBody.Tools = append(reqBody.Tools, Tool{FunctionDeclarations: decls})
	}

	if options.Location != nil {
		reqBody.Tools = append(reqBody.Tools, Tool{GoogleSearch: &GoogleSearch{}})
		reqBody.ToolConfig = &ToolConfig{
			RetrievalConfig: &RetrievalConfig{
				LatLng: &LatLng{
					Latitude:  options.Location.Latitude,
					Longitude: options.Location.Longitude,
				},
			},
		}
	}

	return reqBody
}

func declarationFromTool(tool core.FunctionDeclaration) FunctionDeclaration {
	decl := FunctionDeclaration{
		Name:        tool.Name,
		Description: tool.Description,
	}
	if len(tool.Parameters) > 0 {
		schema := &Schema{
			Type:       "object",
			Properties: make(map[string]*Schema, len(tool.Parameters)),
			Required:   tool.Required,
		}
		for name, typ := range tool.Parameters {
			schema.Properties[name] = &Schema{Type: typ}
		}
		decl.Parameters = schema
	}
	return decl
}

// parseResponse extracts text, function call, and grounding from the first
// candidate.
func (c *Client) parseResponse(apiResp *GenerateResponse, model string) (*core.AIResponse, error) {
	if len(apiResp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", core.ErrRequestFailed)
	}

	candidate := apiResp.Candidates[0]

	var content strings.Builder
	var functionCall *core.FunctionCall
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			content.WriteString(part.Text)
		}
		if part.FunctionCall != nil && functionCall == nil {
			functionCall = &core.FunctionCall{
				ID:   part.FunctionCall.ID,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}
		}
	}

	return &core.AIResponse{
		Content:      content.String(),
		Model:        model,
		FunctionCall: functionCall,
		Grounding:    groundingLinks(candidate.GroundingMetadata),
		Usage: core.TokenUsage{
			PromptTokens:     apiResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: apiResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      apiResp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// groundingLinks flattens grounding metadata into attribution links
func groundingLinks(meta *GroundingMetadata) []core.GroundingLink {
	if meta == nil || len(meta.GroundingChunks) == 0 {
		return nil
	}

	links := make([]core.GroundingLink, 0, len(meta.GroundingChunks))
	for _, chunk := range meta.GroundingChunks {
		switch {
		case chunk.Web != nil && chunk.Web.URI != "":
			links = append(links, core.GroundingLink{
				Title:  chunk.Web.Title,
				URI:    chunk.Web.URI,
				Source: "web",
			})
		case chunk.Maps != nil && chunk.Maps.URI != "":
			links = append(links, core.GroundingLink{
				Title:  chunk.Maps.Title,
				URI:    chunk.Maps.URI,
				Source: "maps",
			})
		}
	}
	if len(links) == 0 {
		return nil
	}
	return links
}

// HandleError maps API error responses to wrapped sentinel errors
func (c *Client) HandleError(statusCode int, body []byte) error {
	message := string(body)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: invalid or missing API key", core.ErrInvalidConfiguration)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limit exceeded", core.ErrRequestFailed)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: invalid request - %s", core.ErrRequestFailed, message)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return fmt.Errorf("%w: service temporarily unavailable (status %d)", core.ErrRequestFailed, statusCode)
	default:
		return fmt.Errorf("%w: status %d - %s", core.ErrRequestFailed, statusCode, message)
	}
}

// applyDefaults fills unset options from the client configuration
func (c *Client) applyDefaults(options *core.AIOptions) *core.AIOptions {
	if options == nil {
		options = &core.AIOptions{}
	}
	if options.Model == "" {
		options.Model = c.defaultModel
	}
	if options.Temperature == 0 {
		options.Temperature = 0.7
	}
	if options.MaxTokens == 0 {
		options.MaxTokens = 1000
	}
	return options
}

func (c *Client) logRequest(model string, messageCount int) {
	c.logger.Info("AI request initiated", map[string]interface{}{
		"operation":     "ai_request",
		"model":         model,
		"message_count": messageCount,
	})
}

func (c *Client) logResponse(model string, usage core.TokenUsage, duration time.Duration) {
	c.logger.Info("AI response received", map[string]interface{}{
		"operation":         "ai_response",
		"model":             model,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
		"duration_ms":       duration.Milliseconds(),
		"status":            "success",
	})
}
