package producer

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.ContentProducer = (*OpenAIProducer)(nil)

// OpenAIProducer implements adapter.ContentProducer using the Images
// API. Video kinds are not supported here.
type OpenAIProducer struct {
	client openai.Client
	model  string
}

func NewOpenAIProducer(apiKey, model string) (*OpenAIProducer, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-image-1"
	}
	return &OpenAIProducer{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIProducer) Name() string { return "openai" }

func (o *OpenAIProducer) Produce(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	if req.Kind != "image" {
		return nil, fmt.Errorf("openai producer does not support kind %q", req.Kind)
	}
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := openai.ImageGenerateParams{
		Prompt: req.Prompt,
		Model:  openai.ImageModel(model),
		N:      openai.Int(1),
	}
	if req.Size != "" {
		params.Size = openai.ImageGenerateParamsSize(req.Size)
	}

	res, err := o.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(res.Data) == 0 {
		return nil, errors.New("openai returned no image")
	}

	url := res.Data[0].URL
	if url == "" && res.Data[0].B64JSON != "" {
		url = "data:image/png;base64," + res.Data[0].B64JSON
	}
	if url == "" {
		return nil, errors.New("openai image has neither url nor payload")
	}
	return &adapter.ProducerResult{URL: url, Provider: o.Name(), Model: model}, nil
}
