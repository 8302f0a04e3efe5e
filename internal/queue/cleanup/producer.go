package cleanup

import (
	"context"
	"log/slog"
)

type queueWriter interface {
	Enqueue(ctx context.Context, queue string, payload []byte) error
}

// Producer enqueues image-cleanup jobs fire-and-forget: enqueue failures are
// logged and swallowed so an offer delete never fails on cleanup.
type Producer struct {
	queue queueWriter
	log   *slog.Logger
}

func NewProducer(queue queueWriter, log *slog.Logger) *Producer {
	return &Producer{queue: queue, log: log}
}

func (p *Producer) EnqueueDestroy(ctx context.Context, publicID, offerID string) {
	if p == nil || p.queue == nil {
		return
	}

	b, err := Encode(NewJob(publicID, offerID))

	if err != nil {
		p.log.Warn("image cleanup encode failed", "public_id", publicID, "err", err)
		return
	}

	if err := p.queue.Enqueue(ctx, Queue, b); err != nil {
		p.log.Warn("image cleanup enqueue failed", "public_id", publicID, "err", err)
	}
}
