package qwen

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

	"github.com/rs/zerolog"

	"sceneforge/internal/domain"
	"sceneforge/internal/infra"
)

// Provider is the name reported in upstream errors.
const Provider = "qwen"

const generationPath = "/api/v1/services/aigc/multimodal-generation/generation"

// Options configures the DashScope Qwen client.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Watermark  bool
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs image edit calls against the DashScope multimodal generation API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	watermark  bool
	httpClient *http.Client
	logger     *infra.Logger
}

// EditRequest captures the prompt and the source image to edit.
type EditRequest struct {
	Prompt         string
	NegativePrompt string
	Image          []byte
	MimeType       string
}

// ImageAsset is one downloaded result image.
type ImageAsset struct {
	URL    string
	Data   []byte
	Format string
}

// EditResult is the normalized reply of an edit call.
type EditResult struct {
	Text      string
	Images    []ImageAsset
	Model     string
	RequestID string
}

type generationRequest struct {
	Model      string           `json:"model"`
	Input      generationInput  `json:"input"`
	Parameters generationParams `json:"parameters"`
}

type generationInput struct {
	Messages []generationMessage `json:"messages"`
}

type generationMessage struct {
	Role    string              `json:"role"`
	Content []generationContent `json:"content"`
}

type generationContent struct {
	Image string `json:"image,omitempty"`
	Text  string `json:"text,omitempty"`
}

type generationParams struct {
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Watermark      *bool  `json:"watermark,omitempty"`
}

type generationResponse struct {
	Output struct {
		Choices []struct {
			FinishReason string `json:"finish_reason"`
			Message      struct {
				Content []struct {
					Image string `json:"image"`
					Text  string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// NewClient constructs a client with defaults for the international DashScope endpoint.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Transport: http.DefaultTransport}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dashscope-intl.aliyuncs.com"
	}
	baseURL = strings.TrimSuffix(baseURL, "/api/v1")
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "qwen-image-edit"
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
		watermark:  opts.Watermark,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// EditImage sends the source image as a data URI with the prompt and downloads every result image.
func (c *Client) EditImage(ctx context.Context, req EditRequest) (*EditResult, error) {
	if !c.HasCredentials() {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamAuth, errors.New("api key is not configured"))
	}
	if len(req.Image) == 0 {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamMalformed, errors.New("source image is empty"))
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("qwen: prompt is required")
	}

	watermark := c.watermark
	payload := generationRequest{
		Model: c.model,
		Input: generationInput{
			Messages: []generationMessage{{
				Role: "user",
				Content: []generationContent{
					{Image: dataURI(req.MimeType, req.Image)},
					{Text: prompt},
				},
			}},
		},
		Parameters: generationParams{
			NegativePrompt: strings.TrimSpace(req.NegativePrompt),
			Watermark:      &watermark,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("qwen: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generationPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("qwen: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamNetwork, withContext(ctx, err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamNetwork, withContext(ctx, err))
	}

	var decoded generationResponse
	decodeErr := json.Unmarshal(raw, &decoded)
	if resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && decoded.Message != "" {
			msg = fmt.Sprintf("%s (%s)", decoded.Message, decoded.Code)
		}
		return nil, domain.NewUpstreamError(Provider, Classify(resp.StatusCode, decoded.Code), fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}
	if decodeErr != nil {
		return nil, domain.NewUpstreamError(Provider, domain.UpstreamMalformed, fmt.Errorf("decode response: %w", decodeErr))
	}
	if decoded.Code != "" {
		return nil, domain.NewUpstreamError(Provider, Classify(resp.StatusCode, decoded.Code), fmt.Errorf("%s (%s)", decoded.Message, decoded.Code))
	}

	result := &EditResult{Model: c.model, RequestID: decoded.RequestID}
	var texts []string
	for _, choice := range decoded.Output.Choices {
		for _, content := range choice.Message.Content {
			if t := strings.TrimSpace(content.Text); t != "" {
				texts = append(texts, t)
			}
			imageURL := strings.TrimSpace(content.Image)
			if imageURL == "" {
				continue
			}
			data, format, err := c.download(ctx, imageURL)
			if err != nil {
				return nil, err
			}
			result.Images = append(result.Images, ImageAsset{URL: imageURL, Data: data, Format: format})
		}
	}
	result.Text = strings.Join(texts, "\n")

	c.logger.Debug().
		Str("model", c.model).
		Str("request_id", decoded.RequestID).
		Int("images", len(result.Images)).
		Msg("qwen: image edit finished")
	return result, nil
}

// Classify maps a DashScope reply to an upstream category.
func Classify(status int, code string) domain.UpstreamCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.UpstreamAuth
	case code == "InvalidApiKey" || code == "AccessDenied":
		return domain.UpstreamAuth
	case status == http.StatusTooManyRequests || strings.HasPrefix(code, "Throttling") || code == "Arrearage":
		return domain.UpstreamQuota
	case code == "DataInspectionFailed" || code == "IPInfringementSuspect":
		return domain.UpstreamContentPolicy
	case status >= http.StatusInternalServerError || code == "InternalError":
		return domain.UpstreamNetwork
	default:
		return domain.UpstreamUnknown
	}
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Scheme == "" {
		return nil, "", domain.NewUpstreamError(Provider, domain.UpstreamMalformed, fmt.Errorf("invalid image url: %s", imageURL))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("qwen: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", domain.NewUpstreamError(Provider, domain.UpstreamNetwork, withContext(ctx, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", domain.NewUpstreamError(Provider, domain.UpstreamNetwork, fmt.Errorf("download status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", domain.NewUpstreamError(Provider, domain.UpstreamNetwork, withContext(ctx, err))
	}
	format := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(format, "image/") {
		format = "image/png"
	}
	return data, format, nil
}

func dataURI(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func withContext(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %v", ctxErr, err)
	}
	return err
}
