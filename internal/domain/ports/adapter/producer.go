package adapter

import "context"

// ProduceRequest carries the parameters of one generation. The request
// is opaque to the ledger side; only Kind participates in pricing.
type ProduceRequest struct {
	Kind   string `json:"kind"` // "image" | "video"
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
	Size   string `json:"size,omitempty"`
}

// ProducerResult is the reference to a finished generation.
type ProducerResult struct {
	URL      string `json:"url"`
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// ContentProducer is the external AI generation call. Implementations
// must honor ctx cancellation; the generation gate imposes the timeout
// and owns the debit/refund protocol around the call. Retries, if any,
// belong to the implementation, never to the ledger.
type ContentProducer interface {
	Name() string
	Produce(ctx context.Context, req ProduceRequest) (*ProducerResult, error)
}
