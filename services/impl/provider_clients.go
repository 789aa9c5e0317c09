package impl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/services"
)

// retryPolicy is the exponential-backoff-with-jitter retry loop shared by every
// provider client, generalized from the teacher's routerServiceImpl.SendRequest
// retry loop (services/impl/router_service_impl.go) into the base/factor/jitter/
// cap/max-attempts shape spec.md §4.9 specifies for the embedder and SPEC_FULL.md
// §4.15 extends to every provider client.
type retryPolicy struct {
	baseDelay  time.Duration
	factor     float64
	jitterFrac float64
	cap        time.Duration
	maxAttempts int
}

func defaultRetryPolicy(maxAttempts int) retryPolicy {
	return retryPolicy{
		baseDelay:   500 * time.Millisecond,
		factor:      2,
		jitterFrac:  0.20,
		cap:         30 * time.Second,
		maxAttempts: maxAttempts,
	}
}

func (p retryPolicy) delay(attempt int) time.Duration {
	d := float64(p.baseDelay) * pow(p.factor, float64(attempt))
	if d > float64(p.cap) {
		d = float64(p.cap)
	}
	jitter := d * p.jitterFrac * (2*rand.Float64() - 1)
	d += jitter
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

func pow(base, exp float64) float64 {
	result := 1.0
	for i := 0; i < int(exp); i++ {
		result *= base
	}
	return result
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// doWithRetry issues buildReq() repeatedly (fresh body each attempt) until it
// succeeds, exhausts maxAttempts, or the context is cancelled.
func doWithRetry(ctx context.Context, client *http.Client, policy retryPolicy, buildReq func() (*http.Request, error)) (*http.Response, error) {
	attempts := policy.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		req, err := buildReq()
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if attempt < attempts-1 {
				select {
				case <-time.After(policy.delay(attempt)):
					continue
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			break
		}
		if isRetryableStatus(resp.StatusCode) && attempt < attempts-1 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("provider returned retryable status %d: %s", resp.StatusCode, string(body))
			select {
			case <-time.After(policy.delay(attempt)):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return resp, nil
	}
	return nil, lastErr
}

func classifyStatus(status int) services.ProviderErrorClass {
	if isRetryableStatus(status) {
		return services.ProviderErrorTransient
	}
	return services.ProviderErrorPermanent
}

// --- Embedder ---

type embedderClient struct {
	cfg        config.EmbedderConfig
	httpClient *http.Client
	policy     retryPolicy
}

// NewEmbedderClient constructs the embed(model, text) -> float[dim] client
// (spec.md §6.2). The caller (orchestratorService.embedChunks) is responsible
// for grouping chunks into cfg.BatchSize batches and bounding concurrency to
// cfg.MaxInFlight; this client itself issues one request per call.
func NewEmbedderClient(cfg config.EmbedderConfig) services.EmbedderClient {
	return &embedderClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		policy:     defaultRetryPolicy(cfg.MaxRetries),
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *embedderClient) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	resp, err := doWithRetry(ctx, c.httpClient, c.policy, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/embeddings", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
		return req, nil
	})
	if err != nil {
		return nil, &services.ProviderError{Class: services.ProviderErrorTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &services.ProviderError{Class: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Message: string(body)}
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	return out.Embeddings, nil
}

// --- Generator ---

type generatorClient struct {
	cfg        config.GeneratorConfig
	httpClient *http.Client
	policy     retryPolicy
}

// NewGeneratorClient constructs the generate(model, prompt, params) -> text
// client (spec.md §6.2), called only by the HTTP ask handler over the
// Retrieval Engine's context pack, never by the Retrieval Engine itself.
func NewGeneratorClient(cfg config.GeneratorConfig) services.GeneratorClient {
	return &generatorClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		policy:     defaultRetryPolicy(cfg.MaxRetries),
	}
}

type generateRequest struct {
	Model  string         `json:"model"`
	Prompt string         `json:"prompt"`
	Params map[string]any `json:"params,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

func (c *generatorClient) Generate(ctx context.Context, model, prompt string, params map[string]any) (string, error) {
	payload, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	resp, err := doWithRetry(ctx, c.httpClient, c.policy, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/generate", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
		return req, nil
	})
	if err != nil {
		return "", &services.ProviderError{Class: services.ProviderErrorTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &services.ProviderError{Class: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Message: string(body)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}
	return out.Text, nil
}

// --- External PDF extractor ---

type externalExtractorClient struct {
	cfg        config.ExtractorConfig
	httpClient *http.Client
	policy     retryPolicy
}

// NewExternalExtractorClient constructs the byte->text PDF provider client
// backing the Text Extractor's PDF branch (spec.md §4.1, §6.2).
func NewExternalExtractorClient(cfg config.ExtractorConfig) services.ExternalExtractorClient {
	return &externalExtractorClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		policy:     defaultRetryPolicy(cfg.MaxRetries),
	}
}

type extractResponse struct {
	Text string `json:"text"`
}

func (c *externalExtractorClient) ExtractPDF(ctx context.Context, fileBytes []byte) (string, error) {
	resp, err := doWithRetry(ctx, c.httpClient, c.policy, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/extract", bytes.NewReader(fileBytes))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/pdf")
		if c.cfg.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}
		return req, nil
	})
	if err != nil {
		return "", &services.ProviderError{Class: services.ProviderErrorTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &services.ProviderError{Class: classifyStatus(resp.StatusCode), Status: resp.StatusCode, Message: string(body)}
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode extract response: %w", err)
	}
	return out.Text, nil
}
