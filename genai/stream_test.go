package genai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/core"
)

func sseServer(t *testing.T, events ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))

		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		for _, event := range events {
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}))
}

func textEvent(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"role":"model","parts":[{"text":%q}]}}]}`, text)
}

func TestStreamDeliversChunksInOrder(t *testing.T) {
	server := sseServer(t,
		textEvent("Olá! "),
		textEvent("Temos impressoras "),
		`{"candidates":[{"content":{"parts":[{"text":"em promoção."}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":9,"totalTokenCount":14}}`,
	)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	var chunks []core.StreamChunk
	resp, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil, func(chunk core.StreamChunk) error {
		chunks = append(chunks, chunk)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "Olá! Temos impressoras em promoção.", resp.Content)
	assert.Equal(t, 14, resp.Usage.TotalTokens)

	// Three content chunks plus the finish-reason chunk
	require.Len(t, chunks, 4)
	assert.Equal(t, "Olá! ", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
	assert.Equal(t, "STOP", chunks[3].FinishReason)
	assert.Empty(t, chunks[3].Text)
}

func TestStreamCapturesFirstFunctionCallOnly(t *testing.T) {
	server := sseServer(t,
		textEvent("Claro, "),
		`{"candidates":[{"content":{"parts":[{"functionCall":{"id":"c1","name":"add_to_cart","args":{"productName":"EcoTank"}}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"functionCall":{"id":"c2","name":"add_to_cart","args":{"productName":"Outro"}}}]}}]}`,
	)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	var calls []*core.FunctionCall
	resp, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "adiciona"}}, nil, func(chunk core.StreamChunk) error {
		if chunk.FunctionCall != nil {
			calls = append(calls, chunk.FunctionCall)
		}
		return nil
	})

	require.NoError(t, err)
	require.NotNil(t, resp.FunctionCall)
	assert.Equal(t, "c1", resp.FunctionCall.ID)
	assert.Equal(t, "EcoTank", resp.FunctionCall.Args["productName"])

	// The second call never reaches the callback
	require.Len(t, calls, 1)
	assert.Equal(t, "c1", calls[0].ID)
}

func TestStreamCollectsGrounding(t *testing.T) {
	server := sseServer(t,
		`{"candidates":[{"content":{"parts":[{"text":"Perto de si: "}]},"groundingMetadata":{"groundingChunks":[{"maps":{"uri":"https://maps.example.com/loja","title":"Loja Lisboa"}}]}}]}`,
		`{"candidates":[{"content":{"parts":[{"text":"veja o site."}]},"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://example.com","title":"OL Print"}}]}}]}`,
	)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "onde?"}}, nil, func(core.StreamChunk) error {
		return nil
	})

	require.NoError(t, err)
	require.Len(t, resp.Grounding, 2)
	assert.Equal(t, "maps", resp.Grounding[0].Source)
	assert.Equal(t, "Loja Lisboa", resp.Grounding[0].Title)
	assert.Equal(t, "web", resp.Grounding[1].Source)
}

func TestStreamCancellationReturnsPartial(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", textEvent("parcial"))
		flusher.Flush()
		// Keep the stream open until the client gives up
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(testConfig(server.URL), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resp, err := client.StreamGenerateContent(ctx, []core.AIMessage{{Role: "user", Text: "olá"}}, nil, func(chunk core.StreamChunk) error {
		cancel()
		return nil
	})

	require.ErrorIs(t, err, core.ErrStreamPartiallyCompleted)
	require.NotNil(t, resp)
	assert.Equal(t, "parcial", resp.Content)
}

func TestStreamConnectionDropIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", textEvent("Temos três impress"))
		flusher.Flush()

		// Drop the connection without finishing the response
		conn, _, err := w.(http.Hijacker).Hijack()
		require.NoError(t, err)
		_ = conn.Close()
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil, func(core.StreamChunk) error {
		return nil
	})

	// A dropped connection is a hard failure, not a clean partial stop
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrStreamPartiallyCompleted)
	assert.Contains(t, err.Error(), "error reading stream")
	require.NotNil(t, resp)
	assert.Equal(t, "Temos três impress", resp.Content)
}

func TestStreamCallbackStopsConsumption(t *testing.T) {
	server := sseServer(t,
		textEvent("primeiro"),
		textEvent("segundo"),
	)
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	resp, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil, func(chunk core.StreamChunk) error {
		return errors.New("stop")
	})

	require.NoError(t, err)
	assert.Equal(t, "primeiro", resp.Content)
}

func TestStreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), nil)

	called := false
	_, err := client.StreamGenerateContent(context.Background(), []core.AIMessage{{Role: "user", Text: "olá"}}, nil, func(core.StreamChunk) error {
		called = true
		return nil
	})

	require.ErrorIs(t, err, core.ErrRequestFailed)
	assert.Contains(t, err.Error(), "invalid argument")
	assert.False(t, called)
}
