package cleanup

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nkoudou/brocante/internal/observability"
	"github.com/nkoudou/brocante/internal/queue/redisclient"
)

type queueReader interface {
	Dequeue(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

type imageDestroyer interface {
	Destroy(ctx context.Context, publicID string) error
}

type Config struct {
	PollTimeout time.Duration
	CallTimeout time.Duration
}

// Worker drains the cleanup queue and calls the image store. Every job is
// attempted exactly once; failures are logged and counted, nothing more.
type Worker struct {
	cfg    Config
	queue  queueReader
	images imageDestroyer
	prom   *observability.Prom
	log    *slog.Logger
}

func NewWorker(cfg Config, queue queueReader, images imageDestroyer, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 2 * time.Second
	}

	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}

	return &Worker{cfg: cfg, queue: queue, images: images, prom: prom, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Info("cleanup worker shutting down")
			return nil
		default:
		}

		raw, err := w.queue.Dequeue(ctx, Queue, w.cfg.PollTimeout)

		if err != nil {
			if errors.Is(err, redisclient.ErrEmpty) || errors.Is(err, context.Canceled) {
				continue
			}

			w.log.Error("cleanup dequeue failed", "err", err)

			// avoid a hot loop when redis is down
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.cfg.PollTimeout):
			}
			continue
		}

		w.process(ctx, raw)
	}
}

func (w *Worker) process(ctx context.Context, raw []byte) {
	if w.prom != nil {
		w.prom.CleanupInFlight.Inc()
		defer w.prom.CleanupInFlight.Dec()
	}

	j, err := Decode(raw)

	if err != nil {
		w.count("invalid")
		w.log.Warn("dropping malformed cleanup job", "err", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx, w.cfg.CallTimeout)
	defer cancel()

	if err := w.images.Destroy(cctx, j.PublicID); err != nil {
		// single-shot policy: log and move on
		w.count("failed")
		w.log.Warn("image destroy failed", "job_id", j.ID, "public_id", j.PublicID, "err", err)
		return
	}

	w.count("done")
	w.log.Info("image destroyed", "job_id", j.ID, "public_id", j.PublicID)
}

func (w *Worker) count(result string) {
	if w.prom != nil {
		w.prom.CleanupResults.WithLabelValues(result).Inc()
	}
}
