package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/olprint/storefront/core"
	"github.com/olprint/storefront/resilience"
)

// supportedAspectRatios for image generation
var supportedAspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"16:9": true,
}

// videoPollConfig bounds how long a video job is polled before giving up.
// Jobs normally finish within a couple of minutes; the backoff tops out so
// the worst case stays near ten minutes.
var videoPollConfig = core.RetryConfig{
	MaxAttempts:     24,
	InitialInterval: 5 * time.Second,
	MaxInterval:     30 * time.Second,
	Multiplier:      1.5,
}

// GenerateImage produces one image for the prompt and returns the decoded
// bytes. Aspect ratio must be one of 1:1, 3:4, 16:9; empty defaults to 1:1.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "ai.generate_image")
	defer span.End()

	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	if !supportedAspectRatios[aspectRatio] {
		err := fmt.Errorf("%w: unsupported aspect ratio %q", core.ErrRequestFailed, aspectRatio)
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("ai.model", c.imageModel)
	span.SetAttribute("ai.aspect_ratio", aspectRatio)

	if c.apiKey == "" {
		err := fmt.Errorf("%w: AI API key not configured", core.ErrMissingConfiguration)
		span.RecordError(err)
		return nil, err
	}

	reqBody := PredictRequest{
		Instances: []PredictInstance{{Prompt: prompt}},
		Parameters: PredictParameters{
			SampleCount: 1,
			AspectRatio: aspectRatio,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Info("Image generation initiated", map[string]interface{}{
		"operation":     "ai_image_request",
		"model":         c.imageModel,
		"aspect_ratio":  aspectRatio,
		"prompt_length": len(prompt),
	})

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", c.baseURL, c.imageModel, c.apiKey)
	body, statusCode, err := c.executeWithResilience(ctx, url, jsonData)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if statusCode != http.StatusOK {
		apiErr := c.HandleError(statusCode, body)
		span.RecordError(apiErr)
		return nil, apiErr
	}

	var predictResp PredictResponse
	if err := json.Unmarshal(body, &predictResp); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(predictResp.Predictions) == 0 {
		err := fmt.Errorf("%w: no predictions in response", core.ErrRequestFailed)
		span.RecordError(err)
		return nil, err
	}

	imageBytes, err := base64.StdEncoding.DecodeString(predictResp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode image payload: %w", err)
	}

	span.SetAttribute("ai.image_bytes", len(imageBytes))
	c.logger.Info("Image generation completed", map[string]interface{}{
		"operation":   "ai_image_response",
		"model":       c.imageModel,
		"image_bytes": len(imageBytes),
	})
	return imageBytes, nil
}

// GenerateVideo starts a long-running video job from a source image and an
// optional prompt. It returns the operation name to poll.
func (c *Client) GenerateVideo(ctx context.Context, prompt string, image []byte, imageMime string) (string, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "ai.generate_video")
	defer span.End()
	span.SetAttribute("ai.model", c.videoModel)

	if c.apiKey == "" {
		err := fmt.Errorf("%w: AI API key not configured", core.ErrMissingConfiguration)
		span.RecordError(err)
		return "", err
	}
	if len(image) == 0 {
		err := fmt.Errorf("%w: source image required", core.ErrRequestFailed)
		span.RecordError(err)
		return "", err
	}
	if imageMime == "" {
		imageMime = "image/png"
	}

	reqBody := VideoRequest{
		Instances: []VideoInstance{{
			Prompt: prompt,
			Image: &Blob{
				MimeType: imageMime,
				Data:     base64.StdEncoding.EncodeToString(image),
			},
		}},
		Parameters: VideoParameters{
			NumberOfVideos: 1,
		},
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	c.logger.Info("Video generation initiated", map[string]interface{}{
		"operation":     "ai_video_request",
		"model":         c.videoModel,
		"prompt_length": len(prompt),
		"image_bytes":   len(image),
	})

	url := fmt.Sprintf("%s/models/%s:predictLongRunning?key=%s", c.baseURL, c.videoModel, c.apiKey)
	body, statusCode, err := c.executeWithResilience(ctx, url, jsonData)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if statusCode != http.StatusOK {
		apiErr := c.HandleError(statusCode, body)
		span.RecordError(apiErr)
		return "", apiErr
	}

	var op Operation
	if err := json.Unmarshal(body, &op); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if op.Name == "" {
		err := fmt.Errorf("%w: no operation name in response", core.ErrRequestFailed)
		span.RecordError(err)
		return "", err
	}

	span.SetAttribute("ai.operation", op.Name)
	return op.Name, nil
}

// PollOperation polls a video job until it finishes, fails, or the attempt
// bound is exhausted. The wait between checks backs off exponentially.
// Returns the URI of the generated video.
func (c *Client) PollOperation(ctx context.Context, operationName string) (string, error) {
	ctx, span := c.telemetry.StartSpan(ctx, "ai.poll_operation")
	defer span.End()
	span.SetAttribute("ai.operation", operationName)

	var videoURI string
	checks := 0

	err := resilience.Poll(ctx, videoPollConfig, func() (bool, error) {
		checks++

		op, err := c.getOperation(ctx, operationName)
		if err != nil {
			return false, err
		}
		if !op.Done {
			c.logger.Debug("Video operation still running", map[string]interface{}{
				"operation": "ai_video_poll",
				"name":      operationName,
				"checks":    checks,
			})
			return false, nil
		}

		if op.Error != nil {
			return false, fmt.Errorf("%w: video job failed (%d): %s", core.ErrRequestFailed, op.Error.Code, op.Error.Message)
		}
		if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
			return false, fmt.Errorf("%w: finished video job has no samples", core.ErrRequestFailed)
		}

		videoURI = op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
		return true, nil
	})

	span.SetAttribute("ai.poll_checks", checks)
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	c.logger.Info("Video generation completed", map[string]interface{}{
		"operation": "ai_video_response",
		"name":      operationName,
		"checks":    checks,
	})
	return videoURI, nil
}

func (c *Client) getOperation(ctx context.Context, operationName string) (*Operation, error) {
	url := fmt.Sprintf("%s/%s?key=%s", c.baseURL, operationName, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConnectionFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, c.HandleError(resp.StatusCode, body)
	}

	var op Operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("failed to parse operation: %w", err)
	}
	return &op, nil
}
