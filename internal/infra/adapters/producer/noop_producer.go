package producer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"content-token-platform/internal/domain/ports/adapter"
)

var _ adapter.ContentProducer = (*NoopProducer)(nil)

// NoopProducer implements adapter.ContentProducer for local/dev runs.
// It simulates a short render and hands back a placeholder URL.
type NoopProducer struct {
	seq atomic.Int64
}

func NewNoopProducer() *NoopProducer { return &NoopProducer{} }

func (n *NoopProducer) Name() string { return "noop" }

func (n *NoopProducer) Produce(ctx context.Context, req adapter.ProduceRequest) (*adapter.ProducerResult, error) {
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &adapter.ProducerResult{
		URL:      fmt.Sprintf("https://cdn.invalid/%s/%d.png", req.Kind, n.seq.Add(1)),
		Provider: n.Name(),
		Model:    "noop",
	}, nil
}
