package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const deliverRetries = 3

// Worker drains the queue and hands jobs to the sender. Delivery
// failures are retried a few times and then dropped; they never
// propagate back to the ledger.
type Worker struct {
	queue    Queue
	sender   Sender
	failures prometheus.Counter
}

func NewWorker(queue Queue, sender Sender, failures prometheus.Counter) *Worker {
	return &Worker{queue: queue, sender: sender, failures: failures}
}

// Run blocks until ctx is canceled.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			slog.Warn("notify dequeue failed", "error", err)
			time.Sleep(time.Second)

			continue
		}

		w.deliver(ctx, job)
	}
}

func (w *Worker) deliver(ctx context.Context, job Job) {
	var err error

	for attempt := 1; attempt <= deliverRetries; attempt++ {
		err = w.sender.Send(ctx, job.UserID, job.Text)
		if err == nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(300*attempt) * time.Millisecond):
		}
	}

	slog.Error("notification dropped",
		"job_id", job.ID,
		"user_id", job.UserID,
		"error", err,
	)
	w.failures.Inc()
}
