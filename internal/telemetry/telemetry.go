// Package telemetry records transaction log entries off the request path.
// Logging is best effort: failures are logged and swallowed, never surfaced
// to the caller of the primary action.
package telemetry

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/cork-collective/corkd/internal/entities"
	"github.com/cork-collective/corkd/internal/storage"
)

var log = logrus.WithField("package", "telemetry")

const writeTimeout = 5 * time.Second

// Logger dispatches transaction records to a background worker.
type Logger struct {
	s  storage.Storage
	wp *workerpool.WorkerPool
}

// New ...
func New(s storage.Storage) *Logger {
	return &Logger{
		s:  s,
		wp: workerpool.New(1),
	}
}

// Log enqueues a transaction record and returns immediately.
func (l *Logger) Log(t entities.Transaction) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	l.wp.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := l.s.CreateTransaction(ctx, &t); err != nil {
			log.WithError(err).
				WithField("type", t.Type).
				WithField("address", t.Address).
				Warn("failed to log transaction")
		}
	})
}

// Stop waits for queued records to be written.
func (l *Logger) Stop() {
	l.wp.StopWait()
}
