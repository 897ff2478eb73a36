// Package notify broadcasts player-facing status messages.
package notify

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xenopark/xenopark/internal/domain"
	"github.com/xenopark/xenopark/internal/metrics"
)

// Feed keeps the most recent notifications for the UI and logs every one.
type Feed struct {
	mu       sync.Mutex
	capacity int
	items    []domain.Notification
	logger   zerolog.Logger
}

// NewFeed creates a feed retaining up to capacity notifications.
func NewFeed(capacity int, logger zerolog.Logger) *Feed {
	if capacity <= 0 {
		capacity = 50
	}
	return &Feed{capacity: capacity, logger: logger}
}

// Notify records a notification. It never blocks on delivery.
func (f *Feed) Notify(message string, level domain.NotifyLevel) {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Message:   message,
		Level:     level,
		CreatedAt: time.Now().UnixMilli(),
	}

	f.mu.Lock()
	f.items = append(f.items, n)
	if len(f.items) > f.capacity {
		f.items = slices.Clone(f.items[len(f.items)-f.capacity:])
	}
	f.mu.Unlock()

	metrics.RecordNotification(string(level))

	var ev *zerolog.Event
	switch level {
	case domain.NotifyError:
		ev = f.logger.Error()
	case domain.NotifyWarning:
		ev = f.logger.Warn()
	default:
		ev = f.logger.Info()
	}
	ev.Str("level_hint", string(level)).Str("notification_id", n.ID).Msg(message)
}

// Recent returns up to limit notifications, newest last. A non-positive limit returns all.
func (f *Feed) Recent(limit int) []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := f.items
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	return slices.Clone(items)
}
