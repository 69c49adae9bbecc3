// Package notify decouples ledger mutations from outbound message
// delivery: the reconciler and command layer enqueue jobs and return,
// and a worker drains the queue. A lost notification never implies a
// lost credit; the ledger rows are the source of truth.
package notify

import (
	"context"

	"github.com/google/uuid"
)

// Job is one message to deliver to one user.
type Job struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

func NewJob(userID int64, text string) Job {
	return Job{
		ID:     uuid.New().String(),
		UserID: userID,
		Text:   text,
	}
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (Job, error)
}

// Sender is the outbound message collaborator (the Telegram client in
// production).
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
