package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// GenerateRequest holds the parameters for an LLM generation call.
type GenerateRequest struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
	// JSON asks the provider to constrain output to a JSON document.
	JSON bool
	// Grounded asks the provider to ground the answer in web search.
	// Providers without search ignore it.
	Grounded bool
}

// Source is a web document the provider used to ground a response.
type Source struct {
	Title string
	URI   string
}

// GenerateResponse holds the result of an LLM generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
	Sources   []Source
}

// LLMClient provides access to a language model for text generation.
type LLMClient interface {
	// Generate sends a prompt and returns the raw text response.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// Available checks whether the provider is reachable.
	Available(ctx context.Context) bool
}

// NewClient builds the client for the configured provider.
func NewClient(cfg LLMConfig, observer Observer) (LLMClient, error) {
	cfg = cfg.WithProviderDefaults()
	switch cfg.Provider {
	case ProviderOllama:
		return NewOllamaClient(cfg, observer), nil
	case ProviderGemini, "":
		if cfg.APIKey == "" {
			return nil, ErrMissingAPIKey
		}
		return NewGeminiClient(cfg, observer), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: 5 * time.Second,
			}).DialContext,
		},
	}
}

// sampling resolves temperature and token limit from the task defaults and
// the request overrides.
func (c LLMConfig) sampling(req GenerateRequest) (float64, int) {
	taskCfg := c.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	return temp, maxTok
}

// generateWithRetries runs attempt under the task timeout, retrying up to
// MaxRetries times, and reports the outcome to observer.
func generateWithRetries(
	ctx context.Context,
	cfg LLMConfig,
	observer Observer,
	req GenerateRequest,
	attempt func(ctx context.Context) (*GenerateResponse, error),
) (*GenerateResponse, error) {
	start := time.Now()

	timeoutMs := cfg.TaskTimeout(req.Task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	var lastErr error
	attempts := 1 + cfg.MaxRetries

	for i := 0; i < attempts; i++ {
		resp, err := attempt(ctx)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			resp.LatencyMs = latency
			if resp.Model == "" {
				resp.Model = cfg.Model
			}
			observer.OnCallComplete(LLMCallEvent{
				Task:      req.Task,
				Provider:  cfg.Provider,
				Model:     cfg.Model,
				LatencyMs: latency,
				Success:   true,
				Sources:   len(resp.Sources),
			})
			return resp, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout
		if ctx.Err() != nil {
			break
		}
	}

	latency := time.Since(start).Milliseconds()
	var finalErr error
	switch {
	case ctx.Err() != nil:
		finalErr = ErrTimeout
	case isConnectionError(lastErr):
		finalErr = ErrUnavailable
	default:
		finalErr = fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
	}
	observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		LatencyMs: latency,
		Success:   false,
		ErrorCode: errorCode(finalErr),
	})
	return nil, finalErr
}

// postJSON sends body to url and returns the raw response body of a 200.
func postJSON(ctx context.Context, client *http.Client, url string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d: %s", httpResp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// reachable issues a short GET and reports whether it answered 200.
func reachable(ctx context.Context, client *http.Client, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ollamaClient implements LLMClient using the Ollama HTTP API.
type ollamaClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewOllamaClient creates an LLMClient that talks to a local Ollama instance.
func NewOllamaClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Provider = ProviderOllama
	return &ollamaClient{
		cfg:      cfg,
		http:     newHTTPClient(),
		observer: observer,
	}
}

// ollamaRequest is the JSON body sent to POST /api/generate.
type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaResponse is the JSON body returned by POST /api/generate (non-streaming).
type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	temp, maxTok := c.cfg.sampling(req)
	body := ollamaRequest{
		Model:  c.cfg.Model,
		System: req.SystemPrompt,
		Prompt: req.UserPrompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: temp,
			NumPredict:  maxTok,
		},
	}
	if req.JSON {
		body.Format = "json"
	}

	return generateWithRetries(ctx, c.cfg, c.observer, req, func(ctx context.Context) (*GenerateResponse, error) {
		raw, err := postJSON(ctx, c.http, c.cfg.Endpoint+"/api/generate", body)
		if err != nil {
			return nil, err
		}
		var resp ollamaResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
		return &GenerateResponse{Text: resp.Response, Model: resp.Model}, nil
	})
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	return reachable(ctx, c.http, c.cfg.Endpoint+"/api/tags")
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	return false
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
