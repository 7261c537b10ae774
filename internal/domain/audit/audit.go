// Package audit implements the best-effort change log. Records are advisory:
// a failed audit write never fails the operation being audited, and the
// retry-then-log policy lives here so call sites cannot get it wrong.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Action tags what happened to the audited entity.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Entry is one append-only audit record. AdminID is empty for system-
// initiated changes. Changes is an opaque JSON payload.
type Entry struct {
	ID         string
	AdminID    string
	Action     Action
	EntityType string
	EntityID   string
	Changes    json.RawMessage
	CreatedAt  time.Time
}

// Store persists audit entries. Append must not mutate existing records.
type Store interface {
	Append(ctx context.Context, e *Entry) error
}

// Recorder writes audit entries with a bounded retry. All failures end up in
// the log, never in the caller's error path.
type Recorder struct {
	store    Store
	lg       *zap.Logger
	attempts int
	backoff  time.Duration
	now      func() time.Time
}

// NewRecorder creates a Recorder. attempts is the total number of Append
// tries (minimum 1); backoff is the delay between them.
func NewRecorder(store Store, lg *zap.Logger, attempts int, backoff time.Duration) *Recorder {
	if attempts < 1 {
		attempts = 1
	}
	return &Recorder{
		store:    store,
		lg:       lg,
		attempts: attempts,
		backoff:  backoff,
		now:      time.Now,
	}
}

// Record appends an audit entry, fire-and-forget. The changes value is
// marshaled to JSON; a nil value stores an empty payload. Record returns
// nothing: after the configured retries the failure is logged and dropped.
func (r *Recorder) Record(ctx context.Context, adminID string, action Action, entityType, entityID string, changes any) {
	var payload json.RawMessage
	if changes != nil {
		b, err := json.Marshal(changes)
		if err != nil {
			r.lg.Warn("audit payload not serializable",
				zap.String("entity_type", entityType),
				zap.String("entity_id", entityID),
				zap.Error(err),
			)
		} else {
			payload = b
		}
	}

	e := &Entry{
		ID:         uuid.New().String(),
		AdminID:    adminID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    payload,
		CreatedAt:  r.now(),
	}

	var err error
retry:
	for attempt := 1; attempt <= r.attempts; attempt++ {
		if err = r.store.Append(ctx, e); err == nil {
			return
		}
		if attempt < r.attempts {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break retry
			case <-time.After(r.backoff):
			}
		}
	}

	r.lg.Error("audit write dropped",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.String("action", string(action)),
		zap.Int("attempts", r.attempts),
		zap.Error(err),
	)
}
