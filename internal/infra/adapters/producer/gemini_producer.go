package producer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"

	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.ContentProducer = (*GeminiProducer)(nil)

// GeminiProducer implements adapter.ContentProducer using the official
// SDK: Imagen for images and Veo for video. Veo runs as a long-running
// operation, so video generation polls until the operation finishes or
// the caller's context expires.
type GeminiProducer struct {
	client     *genai.Client
	imageModel string
	videoModel string
}

func NewGeminiProducer(ctx context.Context, apiKey, imageModel string) (*GeminiProducer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	return &GeminiProducer{
		client:     c,
		imageModel: imageModel,
		videoModel: "veo-2.0-generate-001",
	}, nil
}

func (g *GeminiProducer) Name() string { return "gemini" }

func (g *GeminiProducer) Produce(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	switch req.Kind {
	case "image":
		return g.produceImage(ctx, req)
	case "video":
		return g.produceVideo(ctx, req)
	default:
		return nil, fmt.Errorf("gemini producer does not support kind %q", req.Kind)
	}
}

func (g *GeminiProducer) produceImage(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	model := req.Model
	if model == "" {
		model = g.imageModel
	}
	resp, err := g.client.Models.GenerateImages(ctx, model, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("gemini returned no image")
	}
	img := resp.GeneratedImages[0].Image
	url := img.GCSURI
	if url == "" {
		url = "data:image/png;base64," + base64.StdEncoding.EncodeToString(img.ImageBytes)
	}
	return &adapter.ProducerResult{URL: url, Provider: g.Name(), Model: model}, nil
}

func (g *GeminiProducer) produceVideo(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	model := req.Model
	if model == "" {
		model = g.videoModel
	}
	op, err := g.client.Models.GenerateVideos(ctx, model, req.Prompt, nil, nil)
	if err != nil {
		return nil, err
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
		op, err = g.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return nil, err
		}
	}

	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return nil, errors.New("gemini returned no video")
	}
	return &adapter.ProducerResult{
		URL:      op.Response.GeneratedVideos[0].Video.URI,
		Provider: g.Name(),
		Model:    model,
	}, nil
}
