package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/core"
)

func testConfig(baseURL string) *core.Config {
	cfg := core.DefaultConfig()
	cfg.AI.BaseURL = baseURL
	cfg.AI.APIKey = "test-key"
	cfg.AI.Model = "gemini-2.5-flash"
	cfg.Resilience.Retry = core.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
	cfg.Resilience.CircuitBreaker.Enabled = false
	return cfg
}

func TestGenerateContentSuccess(t *testing.T) {
	var gotPath string
	var gotReq GenerateRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := GenerateResponse{
			Candidates: []Candidate{{
				Content: Content{Role: "model", Parts: []Part{{Text: "Temos impressoras em promoção."}}},
			}},
			UsageMetadata: UsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 8, TotalTokenCount: 20},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.GenerateContent(context.Background(), []core.AIMessage{
		{Role: "user", Text: "Que impressoras têm?"},
	}, &core.AIOptions{SystemPrompt: "És o assistente da loja."})

	require.NoError(t, err)
	assert.Equal(t, "Temos impressoras em promoção.", resp.Content)
	assert.Equal(t, 20, resp.Usage.TotalTokens)
	assert.Contains(t, gotPath, "gemini-2.5-flash:generateContent")
	require.NotNil(t, gotReq.SystemInstruction)
	assert.Equal(t, "És o assistente da loja.", gotReq.SystemInstruction.Parts[0].Text)
	require.Len(t, gotReq.Contents, 1)
	assert.Equal(t, "user", gotReq.Contents[0].Role)
}

func TestGenerateContentParsesFunctionCallAndGrounding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := GenerateResponse{
			Candidates: []Candidate{{
				Content: Content{Role: "model", Parts: []Part{
					{Text: "Vou adicionar ao carrinho."},
					{FunctionCall: &FunctionCall{ID: "call-1", Name: "add_to_cart", Args: map[string]interface{}{"productName": "EcoTank"}}},
				}},
				GroundingMetadata: &GroundingMetadata{
					GroundingChunks: []GroundingChunk{
						{Web: &GroundingSource{URI: "https://example.com/a", Title: "A"}},
						{Maps: &GroundingSource{URI: "https://maps.example.com/b", Title: "B"}},
					},
				},
			}},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.GenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "adiciona"}}, nil)
	require.NoError(t, err)

	require.NotNil(t, resp.FunctionCall)
	assert.Equal(t, "add_to_cart", resp.FunctionCall.Name)
	assert.Equal(t, "EcoTank", resp.FunctionCall.Args["productName"])

	require.Len(t, resp.Grounding, 2)
	assert.Equal(t, "web", resp.Grounding[0].Source)
	assert.Equal(t, "maps", resp.Grounding[1].Source)
}

func TestGenerateContentSendsToolsAndLocation(t *testing.T) {
	var gotReq GenerateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		resp := GenerateResponse{Candidates: []Candidate{{
			Content: Content{Parts: []Part{{Text: "ok"}}},
		}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	_, err := client.GenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, &core.AIOptions{
		Tools: []core.FunctionDeclaration{{
			Name:        "add_to_cart",
			Description: "Adiciona um produto ao carrinho",
			Parameters:  map[string]string{"productName": "string"},
			Required:    []string{"productName"},
		}},
		Location: &core.GeoPoint{Latitude: 38.7, Longitude: -9.1},
	})
	require.NoError(t, err)

	require.Len(t, gotReq.Tools, 2)
	require.Len(t, gotReq.Tools[0].FunctionDeclarations, 1)
	decl := gotReq.Tools[0].FunctionDeclarations[0]
	assert.Equal(t, "add_to_cart", decl.Name)
	require.NotNil(t, decl.Parameters)
	assert.Equal(t, "object", decl.Parameters.Type)
	assert.Equal(t, "string", decl.Parameters.Properties["productName"].Type)
	assert.Equal(t, []string{"productName"}, decl.Parameters.Required)

	assert.NotNil(t, gotReq.Tools[1].GoogleSearch)
	require.NotNil(t, gotReq.ToolConfig)
	require.NotNil(t, gotReq.ToolConfig.RetrievalConfig.LatLng)
	assert.InDelta(t, 38.7, gotReq.ToolConfig.RetrievalConfig.LatLng.Latitude, 0.001)
}

func TestGenerateContentRetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		resp := GenerateResponse{Candidates: []Candidate{{
			Content: Content{Parts: []Part{{Text: "recuperado"}}},
		}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.GenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "recuperado", resp.Content)
	assert.Equal(t, 3, attempts)
}

func TestGenerateContentMissingAPIKey(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.AI.APIKey = ""
	client := NewClient(cfg, nil)

	_, err := client.GenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil)
	assert.ErrorIs(t, err, core.ErrMissingConfiguration)
}

func TestHandleErrorMapping(t *testing.T) {
	client := NewClient(testConfig("http://localhost:1"), nil)

	err := client.HandleError(http.StatusUnauthorized, nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	body, _ := json.Marshal(ErrorResponse{})
	err = client.HandleError(http.StatusBadRequest, body)
	assert.ErrorIs(t, err, core.ErrRequestFailed)

	err = client.HandleError(http.StatusServiceUnavailable, nil)
	assert.ErrorIs(t, err, core.ErrRequestFailed)
}

func TestGenerateImage(t *testing.T) {
	payload := []byte{0x89, 0x50, 0x4E, 0x47}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "imagen-3.0-generate-002:predict")

		var req PredictRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "16:9", req.Parameters.AspectRatio)
		assert.Equal(t, 1, req.Parameters.SampleCount)

		resp := PredictResponse{Predictions: []Prediction{{
			MimeType:           "image/png",
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(payload),
		}}}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	img, err := client.GenerateImage(context.Background(), "uma impressora num escritório", "16:9")
	require.NoError(t, err)
	assert.Equal(t, payload, img)
}

func TestGenerateImageRejectsUnknownAspectRatio(t *testing.T) {
	client := NewClient(testConfig("http://localhost:1"), nil)

	_, err := client.GenerateImage(context.Background(), "prompt", "2:3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aspect ratio")
}

func TestGenerateVideoAndPoll(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, ":predictLongRunning"):
			require.NoError(t, json.NewEncoder(w).Encode(Operation{Name: "operations/video-123"}))
		case strings.Contains(r.URL.Path, "operations/video-123"):
			polls++
			if polls >= 2 {
				_, err := w.Write([]byte(`{
					"name": "operations/video-123",
					"done": true,
					"response": {"generateVideoResponse": {"generatedSamples": [
						{"video": {"uri": "https://example.com/video.mp4"}}
					]}}
				}`))
				require.NoError(t, err)
				return
			}
			require.NoError(t, json.NewEncoder(w).Encode(Operation{Name: "operations/video-123"}))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	originalPoll := videoPollConfig
	videoPollConfig = core.RetryConfig{
		MaxAttempts:     5,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
	defer func() { videoPollConfig = originalPoll }()

	client := NewClient(testConfig(server.URL), nil)

	opName, err := client.GenerateVideo(context.Background(), "mostra a impressora a trabalhar", []byte{1, 2, 3}, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "operations/video-123", opName)

	uri, err := client.PollOperation(context.Background(), opName)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/video.mp4", uri)
	assert.Equal(t, 2, polls)
}

func TestPollOperationBounded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(Operation{Name: "operations/slow", Done: false}))
	}))
	defer server.Close()

	originalPoll := videoPollConfig
	videoPollConfig = core.RetryConfig{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2.0,
	}
	defer func() { videoPollConfig = originalPoll }()

	client := NewClient(testConfig(server.URL), nil)

	_, err := client.PollOperation(context.Background(), "operations/slow")
	assert.ErrorIs(t, err, core.ErrTimeout)
}
