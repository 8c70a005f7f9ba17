package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.ContentProducer = (*StabilityProducer)(nil)

// StabilityProducer implements adapter.ContentProducer against the
// Stability AI v2beta stable-image endpoint. Image only.
type StabilityProducer struct {
	apiKey string
	base   string
	client *http.Client
}

func NewStabilityProducer(apiKey string) (*StabilityProducer, error) {
	if apiKey == "" {
		return nil, errors.New("stability api key empty")
	}
	return &StabilityProducer{
		apiKey: apiKey,
		base:   "https://api.stability.ai/v2beta",
		client: &http.Client{Timeout: 90 * time.Second},
	}, nil
}

func (s *StabilityProducer) Name() string { return "stability" }

func (s *StabilityProducer) Produce(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	if req.Kind != "image" {
		return nil, fmt.Errorf("stability producer does not support kind %q", req.Kind)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("prompt", req.Prompt)
	mw.WriteField("output_format", "png")
	mw.Close()

	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.base+"/stable-image/generate/core", &buf)
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stability http %d", resp.StatusCode)
	}

	var out struct {
		Image        string `json:"image"`
		FinishReason string `json:"finish_reason"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.Image == "" {
		return nil, errors.New("stability returned no image")
	}
	return &adapter.ProducerResult{
		URL:      "data:image/png;base64," + out.Image,
		Provider: s.Name(),
		Model:    "stable-image-core",
	}, nil
}
