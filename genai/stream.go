package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/olprint/storefront/core"
)

// StreamGenerateContent streams a completion over Server-Sent Events.
// The callback receives chunks in arrival order; context cancellation is
// checked at every chunk boundary and returns the partial response with
// core.ErrStreamPartiallyCompleted when any content was accumulated.
func (c *Client) StreamGenerateContent(ctx context.Context, messages []core.AIMessage, options *core.AIOptions, callback core.StreamCallback) (*core.AIResponse, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "ai.stream_generate_content")
	defer span.End()

	options = c.applyDefaults(options)
	span.SetAttribute("ai.model", options.Model)
	span.SetAttribute("ai.streaming", true)

	if c.apiKey == "" {
		c.logger.Error("Stream request failed - API key not configured", map[string]interface{}{
			"operation": "ai_stream_error",
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

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, options.Model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	// No retry once the stream is open; connection establishment only
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Stream request failed - send error", map[string]interface{}{
			"operation": "ai_stream_error",
			"model":     options.Model,
			"error":     err.Error(),
			"phase":     "request_execution",
		})
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", core.ErrConnectionFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := c.HandleError(resp.StatusCode, body)
		c.logger.Error("Stream request failed - API error", map[string]interface{}{
			"operation":   "ai_stream_error",
			"model":       options.Model,
			"status_code": resp.StatusCode,
			"phase":       "api_response",
		})
		span.RecordError(apiErr)
		span.SetAttribute("http.status_code", resp.StatusCode)
		return nil, apiErr
	}

	reader := bufio.NewReader(resp.Body)
	var fullContent strings.Builder
	var functionCall *core.FunctionCall
	var grounding []core.GroundingLink
	var usage core.TokenUsage
	var finishReason string
	chunkIndex := 0

	partial := func() *core.AIResponse {
		return &core.AIResponse{
			Content:      fullContent.String(),
			Model:        options.Model,
			FunctionCall: functionCall,
			Grounding:    grounding,
			Usage:        usage,
		}
	}

	for {
		select {
		case <-ctx.Done():
			if fullContent.Len() > 0 || functionCall != nil {
				span.SetAttribute("ai.stream_partial", true)
				return partial(), core.ErrStreamPartiallyCompleted
			}
			span.RecordError(ctx.Err())
			return nil, ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			// Only cancellation keeps the partial-content contract; a
			// dropped connection is a failure even with content buffered
			if ctx.Err() != nil && (fullContent.Len() > 0 || functionCall != nil) {
				span.SetAttribute("ai.stream_partial", true)
				return partial(), core.ErrStreamPartiallyCompleted
			}
			c.logger.Error("Stream request failed - read error", map[string]interface{}{
				"operation": "ai_stream_error",
				"model":     options.Model,
				"error":     err.Error(),
				"phase":     "stream_read",
			})
			span.RecordError(err)
			return partial(), fmt.Errorf("error reading stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var chunkResp GenerateResponse
		if err := json.Unmarshal([]byte(data), &chunkResp); err != nil {
			// Malformed chunks are skipped, not fatal
			c.logger.Debug("Stream - failed to parse chunk", map[string]interface{}{
				"operation": "ai_stream_parse",
				"error":     err.Error(),
			})
			continue
		}

		if chunkResp.UsageMetadata.TotalTokenCount > 0 {
			usage = core.TokenUsage{
				PromptTokens:     chunkResp.UsageMetadata.PromptTokenCount,
				CompletionTokens: chunkResp.UsageMetadata.CandidatesTokenCount,
				TotalTokens:      chunkResp.UsageMetadata.TotalTokenCount,
			}
		}

		for _, candidate := range chunkResp.Candidates {
			chunk := core.StreamChunk{Index: chunkIndex}

			for _, part := range candidate.Content.Parts {
				if part.Text != "" {
					fullContent.WriteString(part.Text)
					chunk.Text += part.Text
				}
				if part.FunctionCall != nil {
					call := &core.FunctionCall{
						ID:   part.FunctionCall.ID,
						Name: part.FunctionCall.Name,
						Args: part.FunctionCall.Args,
					}
					if functionCall == nil {
						functionCall = call
						chunk.FunctionCall = call
					} else {
						// Only one capability runs per turn
						c.logger.Warn("Stream - additional function call dropped", map[string]interface{}{
							"operation": "ai_stream_tool_call",
							"kept":      functionCall.Name,
							"dropped":   call.Name,
						})
					}
				}
			}

			if links := groundingLinks(candidate.GroundingMetadata); len(links) > 0 {
				grounding = append(grounding, links...)
				chunk.Grounding = links
			}
			if candidate.FinishReason != "" {
				finishReason = candidate.FinishReason
			}

			if chunk.Text == "" && chunk.FunctionCall == nil && chunk.Grounding == nil {
				continue
			}
			chunkIndex++

			if err := callback(chunk); err != nil {
				span.SetAttribute("ai.stream_stopped_by_callback", true)
				return partial(), nil
			}
		}
	}

	if finishReason != "" {
		_ = callback(core.StreamChunk{Index: chunkIndex, FinishReason: finishReason})
	}

	result := partial()

	span.SetAttribute("ai.total_tokens", result.Usage.TotalTokens)
	span.SetAttribute("ai.response_length", len(result.Content))
	span.SetAttribute("ai.chunks_sent", chunkIndex)
	c.logResponse(options.Model, result.Usage, time.Since(startTime))

	return result, nil
}
