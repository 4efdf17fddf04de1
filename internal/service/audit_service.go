package service

import (
	"context"
	"sync"
	"time"

	"b2b-wallet/internal/core/domain"
	"b2b-wallet/internal/core/ports"

	"github.com/rs/zerolog"
)

const (
	auditQueueSize    = 256
	auditWriteTimeout = 3 * time.Second
)

// AuditWriter persists audit entries from a bounded queue on a single
// goroutine. A full queue drops the entry with a warning; audit never delays
// a ledger response.
type AuditWriter struct {
	repo  ports.AuditRepository
	log   zerolog.Logger
	queue chan *domain.AuditLog
	done  chan struct{}
	once  sync.Once
}

var _ ports.AuditService = (*AuditWriter)(nil)

// NewAuditService starts the writer. A nil repo only logs.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) *AuditWriter {
	w := &AuditWriter{
		repo:  repo,
		log:   log,
		queue: make(chan *domain.AuditLog, auditQueueSize),
		done:  make(chan struct{}),
	}
	go w.run()
	return w
}

// Log enqueues entry. It must not be called after Close.
func (w *AuditWriter) Log(_ context.Context, entry *domain.AuditLog) {
	select {
	case w.queue <- entry:
	default:
		w.log.Warn().
			Str("action", string(entry.Action)).
			Str("resource_id", entry.ResourceID).
			Msg("audit queue full, entry dropped")
	}
}

// Close stops accepting entries and waits for the queue to drain or ctx to end.
func (w *AuditWriter) Close(ctx context.Context) error {
	w.once.Do(func() { close(w.queue) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *AuditWriter) run() {
	defer close(w.done)
	for entry := range w.queue {
		w.write(entry)
	}
}

func (w *AuditWriter) write(entry *domain.AuditLog) {
	w.log.Info().
		Str("action", string(entry.Action)).
		Str("resource_type", entry.ResourceType).
		Str("resource_id", entry.ResourceID).
		Str("ip", entry.IPAddress).
		Msg("audit")

	if w.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	if err := w.repo.Create(ctx, entry); err != nil {
		w.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist audit log")
	}
}
