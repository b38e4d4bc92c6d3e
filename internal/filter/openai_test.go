package filter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  DefaultModel,
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			FinishReason: "stop",
		}},
	}
}

func TestParseResponse(t *testing.T) {
	content := "Here you go:\n- Save changes\n  - Cancel\n-nope\n- - Delete -\r\n\n"
	assert.Equal(t, []string{"Save changes", "Cancel", "Delete"}, ParseResponse(content))
	assert.Empty(t, ParseResponse("nothing useful"))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Strings: \n- Save\n- Cancel", UserMessage([]string{"Save", "Cancel"}))
}

func TestNewOpenAIFilter_RequiresKey(t *testing.T) {
	_, err := NewOpenAIFilter("", Options{})
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.InDelta(t, 0.2, req.Temperature, 1e-6)

		// Keep every string that starts with an uppercase letter.
		var keep []string
		for _, line := range strings.Split(req.Messages[1].Content, "\n")[1:] {
			s := strings.TrimPrefix(line, "- ")
			if s != "" && strings.ToUpper(s[:1]) == s[:1] {
				keep = append(keep, "- "+s)
			}
		}
		_ = json.NewEncoder(w).Encode(chatResponse(strings.Join(keep, "\n")))
	}))
	defer server.Close()

	f, err := NewOpenAIFilter("test-key", Options{BaseURL: server.URL, BatchSize: 2})
	require.NoError(t, err)

	got, err := f.Filter(context.Background(), []string{"Save", "btnLabel", "Cancel", "user.name", "Help"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Save", "Cancel", "Help"}, got)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFilter_FailedBatchContributesNothing(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"bad request","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(chatResponse("- Help"))
	}))
	defer server.Close()

	f, err := NewOpenAIFilter("test-key", Options{BaseURL: server.URL, BatchSize: 1})
	require.NoError(t, err)

	got, err := f.Filter(context.Background(), []string{"Save", "Help"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Help"}, got)
}

func TestFilter_Cancelled(t *testing.T) {
	f, err := NewOpenAIFilter("test-key", Options{BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = f.Filter(ctx, []string{"Save"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilter_Empty(t *testing.T) {
	f, err := NewOpenAIFilter("test-key", Options{BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)

	got, err := f.Filter(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
