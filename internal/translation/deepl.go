package translation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ui-translator/internal/interpolation"
	"ui-translator/internal/textutil"
	"ui-translator/internal/worker"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultDeepLURL is the DeepL free-tier translate endpoint.
const DefaultDeepLURL = "https://api-free.deepl.com/v2/translate"

// ErrorPrefix starts the value recorded for texts whose batch failed.
const ErrorPrefix = "Error: "

// Translator maps source strings to their translation in targetLang.
type Translator interface {
	BatchTranslate(ctx context.Context, texts []string, targetLang string) map[string]string
}

// DeepLClient translates text through the DeepL v2 API.
type DeepLClient struct {
	apiKey     string
	baseURL    string
	batchSize  int
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

// DeepLOptions configures a DeepLClient. Zero values select defaults.
type DeepLOptions struct {
	BaseURL           string
	BatchSize         int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// NewDeepLClient creates a new DeepL translation client.
func NewDeepLClient(apiKey string, opts DeepLOptions) *DeepLClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultDeepLURL
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 30
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &DeepLClient{
		apiKey:     apiKey,
		baseURL:    opts.BaseURL,
		batchSize:  opts.BatchSize,
		maxRetries: 3,
		backoff:    2 * time.Second,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

type deeplResponse struct {
	Translations []deeplTranslation `json:"translations"`
}

type deeplTranslation struct {
	DetectedSourceLanguage string `json:"detected_source_language"`
	Text                   string `json:"text"`
}

// statusError is returned for non-200 responses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Translate translates a single text.
func (c *DeepLClient) Translate(ctx context.Context, text, targetLang string) (string, error) {
	out, err := c.translateBatch(ctx, []string{text}, targetLang)
	if err != nil {
		return "", err
	}
	return out[0], nil
}

// BatchTranslate translates texts in batches. A failed batch does not stop
// the others: each of its texts maps to "Error: <reason>" instead.
func (c *DeepLClient) BatchTranslate(ctx context.Context, texts []string, targetLang string) map[string]string {
	translations := make(map[string]string, len(texts))
	batches := worker.Batch(texts, c.batchSize)

	for i, batch := range batches {
		out, err := c.translateBatch(ctx, batch, targetLang)
		if err != nil {
			log.Error().Err(err).Int("batch", i+1).Int("size", len(batch)).Msg("DeepL batch failed")
			for _, text := range batch {
				if _, ok := translations[text]; !ok {
					translations[text] = ErrorPrefix + err.Error()
				}
			}
			continue
		}
		for j, text := range batch {
			translations[text] = out[j]
		}
		log.Info().
			Int("batch", i+1).
			Int("total_batches", textutil.BatchCount(len(texts), c.batchSize)).
			Msg("Translated batch")
	}

	return translations
}

// translateBatch protects placeholders, sends one request and restores the
// placeholders in the returned translations.
func (c *DeepLClient) translateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	protected := make([]string, len(texts))
	mappings := make([][]interpolation.Mapping, len(texts))
	for i, text := range texts {
		protected[i], mappings[i] = interpolation.Protect(text)
	}

	form := url.Values{}
	for _, t := range protected {
		form.Add("text", t)
	}
	form.Set("target_lang", strings.ToUpper(targetLang))

	resp, err := c.send(ctx, form)
	if err != nil {
		return nil, err
	}
	if len(resp.Translations) != len(texts) {
		return nil, fmt.Errorf("expected %d translations, got %d", len(texts), len(resp.Translations))
	}

	out := make([]string, len(texts))
	for i, tr := range resp.Translations {
		out[i] = interpolation.Restore(tr.Text, mappings[i])
	}
	return out, nil
}

// send posts the form, retrying rate-limit and server errors with a linear
// backoff.
func (c *DeepLClient) send(ctx context.Context, form url.Values) (*deeplResponse, error) {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * c.backoff
			log.Warn().Int("attempt", attempt+1).Dur("backoff", backoff).Msg("Retrying translation")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		resp, err := c.doRequest(ctx, form)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("translation failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *DeepLClient) doRequest(ctx context.Context, form url.Values) (*deeplResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode, body: textutil.Truncate(string(body), 200)}
	}

	var out deeplResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &out, nil
}
