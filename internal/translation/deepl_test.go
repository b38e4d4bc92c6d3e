package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDeepL answers like DeepL, prefixing each text with the target language.
func fakeDeepL(t *testing.T, fail func(texts []string) int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "DeepL-Auth-Key test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())

		texts := r.PostForm["text"]
		if fail != nil {
			if code := fail(texts); code != 0 {
				w.WriteHeader(code)
				_, _ = w.Write([]byte(`{"message":"nope"}`))
				return
			}
		}

		resp := deeplResponse{}
		for _, text := range texts {
			resp.Translations = append(resp.Translations, deeplTranslation{
				DetectedSourceLanguage: "EN",
				Text:                   r.PostForm.Get("target_lang") + ":" + text,
			})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, batchSize int) *DeepLClient {
	c := NewDeepLClient("test-key", DeepLOptions{BaseURL: url, BatchSize: batchSize, RequestsPerSecond: 1000})
	c.backoff = time.Millisecond
	return c
}

func TestBatchTranslate(t *testing.T) {
	srv, calls := fakeDeepL(t, nil)
	c := newTestClient(srv.URL, 2)

	got := c.BatchTranslate(context.Background(), []string{"Save", "Cancel", "Delete"}, "fr")

	assert.Equal(t, map[string]string{
		"Save":   "FR:Save",
		"Cancel": "FR:Cancel",
		"Delete": "FR:Delete",
	}, got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBatchTranslate_PartialFailure(t *testing.T) {
	srv, _ := fakeDeepL(t, func(texts []string) int {
		for _, text := range texts {
			if text == "Broken" {
				return http.StatusBadRequest
			}
		}
		return 0
	})
	c := newTestClient(srv.URL, 2)

	got := c.BatchTranslate(context.Background(), []string{"Save", "Cancel", "Broken", "Help"}, "DE")

	assert.Equal(t, "DE:Save", got["Save"])
	assert.Equal(t, "DE:Cancel", got["Cancel"])
	assert.True(t, strings.HasPrefix(got["Broken"], ErrorPrefix))
	assert.True(t, strings.HasPrefix(got["Help"], ErrorPrefix))
	assert.Contains(t, got["Help"], "status 400")
}

func TestTranslate_RetriesServerErrors(t *testing.T) {
	var attempts atomic.Int32
	srv, _ := fakeDeepL(t, func(texts []string) int {
		if attempts.Add(1) < 3 {
			return http.StatusServiceUnavailable
		}
		return 0
	})
	c := newTestClient(srv.URL, 10)

	got, err := c.Translate(context.Background(), "Retry me", "es")

	require.NoError(t, err)
	assert.Equal(t, "ES:Retry me", got)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestTranslate_DoesNotRetryClientErrors(t *testing.T) {
	srv, calls := fakeDeepL(t, func(texts []string) int { return http.StatusForbidden })
	c := newTestClient(srv.URL, 10)

	_, err := c.Translate(context.Background(), "Nope", "fr")

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestTranslate_GivesUpAfterMaxRetries(t *testing.T) {
	srv, calls := fakeDeepL(t, func(texts []string) int { return http.StatusTooManyRequests })
	c := newTestClient(srv.URL, 10)

	_, err := c.Translate(context.Background(), "Busy", "fr")

	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, int32(3), calls.Load())
}

func TestTranslate_ProtectsPlaceholders(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		sent = r.PostForm.Get("text")
		_, _ = w.Write([]byte(`{"translations":[{"text":"Bonjour {{var_1}}, bienvenue"}]}`))
	}))
	defer srv.Close()
	c := newTestClient(srv.URL, 10)

	got, err := c.Translate(context.Background(), "Hello %s, welcome", "fr")

	require.NoError(t, err)
	assert.Equal(t, "Hello {{var_1}}, welcome", sent)
	assert.Equal(t, "Bonjour %s, bienvenue", got)
}

func TestTranslate_MismatchedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"translations":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL, 10).Translate(context.Background(), "Lost", "fr")

	assert.ErrorContains(t, err, "expected 1 translations, got 0")
}
