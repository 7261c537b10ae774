package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockStore struct {
	entries  []*Entry
	failures int // fail this many calls before succeeding
	calls    int
}

func (m *mockStore) Append(_ context.Context, e *Entry) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("store unavailable")
	}
	m.entries = append(m.entries, e)
	return nil
}

func newRecorder(store Store, attempts int) (*Recorder, *observer.ObservedLogs) {
	core, logs := observer.New(zap.WarnLevel)
	return NewRecorder(store, zap.New(core), attempts, time.Millisecond), logs
}

func TestRecord_Success(t *testing.T) {
	store := &mockStore{}
	rec, logs := newRecorder(store, 3)

	rec.Record(context.Background(), "admin1", ActionUpdate, "product", "p1",
		map[string]any{"quantity": map[string]int{"before": 10, "after": 0}})

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	assert.Equal(t, "admin1", e.AdminID)
	assert.Equal(t, ActionUpdate, e.Action)
	assert.Equal(t, "product", e.EntityType)
	assert.Equal(t, "p1", e.EntityID)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	var changes map[string]map[string]int
	require.NoError(t, json.Unmarshal(e.Changes, &changes))
	assert.Equal(t, 0, changes["quantity"]["after"])
	assert.Zero(t, logs.Len())
}

func TestRecord_RetriesThenSucceeds(t *testing.T) {
	store := &mockStore{failures: 2}
	rec, logs := newRecorder(store, 3)

	rec.Record(context.Background(), "", ActionCreate, "order", "o1", nil)

	assert.Equal(t, 3, store.calls)
	assert.Len(t, store.entries, 1)
	assert.Zero(t, logs.FilterMessage("audit write dropped").Len())
}

func TestRecord_DropsAfterRetriesExhausted(t *testing.T) {
	store := &mockStore{failures: 99}
	rec, logs := newRecorder(store, 3)

	// Must not panic or propagate anything.
	rec.Record(context.Background(), "", ActionDelete, "order", "o1", nil)

	assert.Equal(t, 3, store.calls)
	assert.Empty(t, store.entries)
	dropped := logs.FilterMessage("audit write dropped").All()
	require.Len(t, dropped, 1)
	assert.Equal(t, "order", dropped[0].ContextMap()["entity_type"])
}

func TestRecord_UnserializablePayload(t *testing.T) {
	store := &mockStore{}
	rec, logs := newRecorder(store, 1)

	rec.Record(context.Background(), "", ActionUpdate, "order", "o1", map[string]any{
		"bad": func() {},
	})

	// The entry is still written, just without the payload.
	require.Len(t, store.entries, 1)
	assert.Nil(t, store.entries[0].Changes)
	assert.Equal(t, 1, logs.FilterMessage("audit payload not serializable").Len())
}

func TestRecord_StopsRetryingOnCancelledContext(t *testing.T) {
	store := &mockStore{failures: 99}
	rec, logs := newRecorder(store, 5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Record(ctx, "", ActionCreate, "order", "o1", nil)

	assert.Equal(t, 1, store.calls, "cancelled context stops the retry loop")
	assert.Equal(t, 1, logs.FilterMessage("audit write dropped").Len())
}
