package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
)

// Provider is the name reported in upstream errors.
const Provider = "gemini"

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the Gemini generateContent REST endpoint for image edits.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

// EditRequest is one prompt plus the source image sent inline.
type EditRequest struct {
	Prompt   string
	Image    []byte
	MimeType string
}

// InlineImage is an image part returned by the model.
type InlineImage struct {
	MimeType string
	Data     []byte
}

// EditResult collects every text and image part of the first candidate set.
type EditResult struct {
	Text   string
	Images []InlineImage
	Model  string
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
	CandidateCount     int      `json:"candidateCount,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
	ModelVersion   string                `json:"modelVersion,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
		Status  string `json:"status,omitempty"`
	} `json:"error"`
}

var safetyFinishReasons = map[string]bool{
	"SAFETY":             true,
	"PROHIBITED_CONTENT": true,
	"IMAGE_SAFETY":       true,
	"BLOCKLIST":          true,
	"SPII":               true,
}

// NewClient constructs a Gemini client. A nil HTTP client gets a default one without a timeout,
// callers bound each call with their context.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: http.DefaultTransport}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("genai: invalid base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.5-flash-image-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := zerolog.New(io.Discard)
		logger = &l
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether an API key is configured.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// EditImage sends the prompt and source image and returns every part the model produced.
// A response without images is not an error here; callers decide what an empty result means.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*EditResult, error) {
	if !c.HasCredentials() {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamAuth, errors.New("api key is not configured"))
	}
	if len(req.Image) == 0 {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamMalformed, errors.New("source image is empty"))
	}
	mimeType := req.MimeType
	if mimeType == "" {
		mimeType = "image/png"
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: strings.TrimSpace(req.Prompt)},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(req.Image),
				}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	}

	start := time.Now()
	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), payload, &response); err != nil {
		return nil, err
	}

	result, err := c.collect(response)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().
		Str("model", result.Model).
		Int("images", len(result.Images)).
		Int("text_len", len(result.Text)).
		Dur("took", time.Since(start)).
		Msg("genai: image edit finished")
	return result, nil
}

func (c *Client) collect(response geminiGenerateContentResponse) (*EditResult, error) {
	if fb := response.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamContentPolicy, fmt.Errorf("prompt blocked: %s", fb.BlockReason))
	}

	result := &EditResult{Model: firstNonEmpty(response.ModelVersion, c.model)}
	var (
		texts       []string
		blockReason string
	)
	for _, candidate := range response.Candidates {
		if safetyFinishReasons[candidate.FinishReason] {
			blockReason = candidate.FinishReason
		}
		for _, part := range candidate.Content.Parts {
			if t := strings.TrimSpace(part.Text); t != "" {
				texts = append(texts, t)
			}
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, domain.NewUpstreamError(Provider, domain.UpstreamMalformed, fmt.Errorf("decode inline data: %w", err))
			}
			result.Images = append(result.Images, InlineImage{
				MimeType: firstNonEmpty(part.InlineData.MimeType, "image/png"),
				Data:     data,
			})
		}
	}
	if len(result.Images) == 0 && blockReason != "" {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamContentPolicy, fmt.Errorf("finish reason %s", blockReason))
	}
	result.Text = strings.Join(texts, "\n")
	return result, nil
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	endpoint := c.baseURL + path
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError(Provider, domain.UpstreamNetwork, transportError(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewUpstreamError(Provider, domain.UpstreamNetwork, fmt.Errorf("read response: %w", transportError(ctx, err)))
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr geminiErrorResponse
		msg := strings.TrimSpace(string(raw))
		status := ""
		if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
			status = apiErr.Error.Status
		}
		return domain.NewUpstreamError(Provider, ClassifyStatus(resp.StatusCode, status, msg), fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewUpstreamError(Provider, domain.UpstreamMalformed, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// ClassifyStatus maps an HTTP error reply to an upstream category.
func ClassifyStatus(code int, status, message string) domain.UpstreamCategory {
	lower := strings.ToLower(message)
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.UpstreamAuth
	case strings.Contains(lower, "api key") || status == "PERMISSION_DENIED" || status == "UNAUTHENTICATED":
		return domain.UpstreamAuth
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return domain.UpstreamQuota
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		return domain.UpstreamContentPolicy
	case code >= http.StatusInternalServerError:
		return domain.UpstreamNetwork
	default:
		return domain.UpstreamUnknown
	}
}

func transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
