package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// geminiClient implements LLMClient using the Gemini generateContent API.
type geminiClient struct {
	cfg      LLMConfig
	http     *http.Client
	observer Observer
}

// NewGeminiClient creates an LLMClient for Google's hosted Gemini models.
func NewGeminiClient(cfg LLMConfig, observer Observer) LLMClient {
	if observer == nil {
		observer = NoopObserver{}
	}
	cfg.Provider = ProviderGemini
	return &geminiClient{
		cfg:      cfg,
		http:     newHTTPClient(),
		observer: observer,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

// geminiRequest is the JSON body sent to models/{model}:generateContent.
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	Tools             []geminiTool           `json:"tools,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content           geminiContent `json:"content"`
		FinishReason      string        `json:"finishReason"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

func (c *geminiClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	temp, maxTok := c.cfg.sampling(req)
	body := geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: req.UserPrompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     temp,
			MaxOutputTokens: maxTok,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}
	if req.Grounded {
		// The API rejects a JSON mime type together with the search tool;
		// grounded answers are extracted from free text instead.
		body.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	} else if req.JSON {
		body.GenerationConfig.ResponseMimeType = "application/json"
	}

	return generateWithRetries(ctx, c.cfg, c.observer, req, func(ctx context.Context) (*GenerateResponse, error) {
		raw, err := postJSON(ctx, c.http, c.endpoint(), body)
		if err != nil {
			return nil, err
		}
		return decodeGeminiResponse(raw)
	})
}

func decodeGeminiResponse(raw []byte) (*GenerateResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: response has no candidates", ErrInvalidOutput)
	}
	cand := resp.Candidates[0]

	var text strings.Builder
	for _, p := range cand.Content.Parts {
		text.WriteString(p.Text)
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%w: empty response (finish reason %q)", ErrInvalidOutput, cand.FinishReason)
	}

	out := &GenerateResponse{Text: text.String(), Model: resp.ModelVersion}
	if cand.GroundingMetadata != nil {
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			out.Sources = append(out.Sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}
	return out, nil
}

func (c *geminiClient) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
}

func (c *geminiClient) Available(ctx context.Context) bool {
	u := fmt.Sprintf("%s/v1beta/models/%s?key=%s",
		strings.TrimRight(c.cfg.Endpoint, "/"), url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	return reachable(ctx, c.http, u)
}
