package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"sceneforge/internal/domain"
)

func TestEditImagePayloadAndDownload(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client, err := NewClient(Options{
		APIKey:     "test",
		Watermark:  true,
		HTTPClient: &http.Client{Transport: transport},
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	transport.setJSONResponse(generationPath, http.StatusOK, map[string]any{
		"output": map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": []any{
							map[string]any{"image": "https://example.com/generated/out.png"},
						},
					},
				},
			},
		},
		"request_id": "req-123",
	})
	transport.setBinaryResponse("https://example.com/generated/out.png", []byte{0x89, 'P', 'N', 'G'})

	res, err := client.EditImage(context.Background(), EditRequest{
		Prompt:   "edit the image",
		Image:    []byte{0x01, 0x02, 0x03},
		MimeType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("edit image: %v", err)
	}
	if len(res.Images) != 1 || !bytes.Equal(res.Images[0].Data, []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("unexpected images: %+v", res.Images)
	}
	if res.Model != "qwen-image-edit" || res.RequestID != "req-123" {
		t.Fatalf("unexpected result: %+v", res)
	}

	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model"] != "qwen-image-edit" {
		t.Fatalf("model = %v", payload["model"])
	}
	content := payload["input"].(map[string]any)["messages"].([]any)[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content len = %d, want 2", len(content))
	}
	img, _ := content[0].(map[string]any)["image"].(string)
	if !strings.HasPrefix(img, "data:image/jpeg;base64,") {
		t.Fatalf("image not sent as data uri: %q", img)
	}
	if text := content[1].(map[string]any)["text"]; text != "edit the image" {
		t.Fatalf("text = %v", text)
	}
	params := payload["parameters"].(map[string]any)
	if params["watermark"] != true {
		t.Fatalf("watermark = %v, want true", params["watermark"])
	}
	if _, ok := params["negative_prompt"]; ok {
		t.Fatalf("negative_prompt should be omitted when empty")
	}
}

func TestEditImageErrorCategories(t *testing.T) {
	tests := []struct {
		name   string
		status int
		code   string
		want   domain.UpstreamCategory
	}{
		{name: "invalid key", status: 401, code: "InvalidApiKey", want: domain.UpstreamAuth},
		{name: "throttled", status: 429, code: "Throttling.RateQuota", want: domain.UpstreamQuota},
		{name: "inspection", status: 400, code: "DataInspectionFailed", want: domain.UpstreamContentPolicy},
		{name: "internal", status: 500, code: "InternalError", want: domain.UpstreamNetwork},
		{name: "bad request", status: 400, code: "InvalidParameter", want: domain.UpstreamUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := &captureTransport{responses: map[string]responseStub{}}
			transport.setJSONResponse(generationPath, tt.status, map[string]any{"code": tt.code, "message": "nope"})
			client, _ := NewClient(Options{APIKey: "k", HTTPClient: &http.Client{Transport: transport}})

			_, err := client.EditImage(context.Background(), EditRequest{Prompt: "p", Image: []byte{1}})
			var upErr *domain.UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("expected UpstreamError, got %v", err)
			}
			if upErr.Category != tt.want {
				t.Fatalf("category = %s, want %s", upErr.Category, tt.want)
			}
		})
	}
}

func TestEditImageMalformedBody(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{
		generationPath: {status: http.StatusOK, body: []byte("<html>")},
	}}
	client, _ := NewClient(Options{APIKey: "k", HTTPClient: &http.Client{Transport: transport}})
	_, err := client.EditImage(context.Background(), EditRequest{Prompt: "p", Image: []byte{1}})
	if domain.UpstreamCategoryOf(err) != domain.UpstreamMalformed {
		t.Fatalf("expected malformed, got %v", err)
	}
}

func TestNewClientStripsAPIPrefix(t *testing.T) {
	client, _ := NewClient(Options{BaseURL: "https://dashscope.example.com/api/v1/"})
	if client.baseURL != "https://dashscope.example.com" {
		t.Fatalf("baseURL = %q", client.baseURL)
	}
	if client.HasCredentials() {
		t.Fatalf("expected no credentials")
	}
}

type captureTransport struct {
	responses map[string]responseStub
	lastBody  []byte
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(path string, status int, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[path] = responseStub{
		status: status,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (c *captureTransport) setBinaryResponse(url string, data []byte) {
	c.responses[url] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"image/png"}},
		body:   data,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		cloned := make([]string, len(values))
		copy(cloned, values)
		header[k] = cloned
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
