package inspection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/repository"
)

var wib = time.FixedZone("WIB", 7*3600)

type recordingNotifier struct {
	events []*domain.InspectionEvent
	err    error
}

func (n *recordingNotifier) NotifyRecorded(ctx context.Context, ev *domain.InspectionEvent) error {
	n.events = append(n.events, ev)
	return n.err
}

func newStore() *repository.MemoryStore {
	store := repository.NewMemoryStore()
	store.PutLocation(domain.Location{LocationID: "L1", Name: "Lobby Barat", QRPayload: "LOC-L1"})
	return store
}

func TestRecord_AreaByQR(t *testing.T) {
	store := newStore()
	notifier := &recordingNotifier{}
	r := NewRecorder(store, notifier, zap.NewNop())
	at := time.Date(2024, 4, 30, 9, 0, 0, 0, wib)

	ev, err := r.Record(context.Background(), RecordRequest{
		GuardID:     "G1",
		CheckType:   "AREA",
		QRPayload:   " LOC-L1 ",
		EvidenceURL: "https://cdn.example/area.jpg",
		AparCode:    "ignored",
		At:          at,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, "L1", ev.LocationID)
	assert.Equal(t, domain.CheckTypeArea, ev.CheckType)
	assert.True(t, ev.CheckedAt.Equal(at))
	require.NotNil(t, ev.EvidenceURL)
	assert.Empty(t, ev.AparCode)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, ev.EventID, notifier.events[0].EventID)

	stored, err := store.FindEvents(context.Background(), repository.EventFilter{
		CheckType: domain.CheckTypeArea, From: at.Add(-time.Hour), To: at.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestRecord_AparValidation(t *testing.T) {
	r := NewRecorder(newStore(), nil, zap.NewNop())
	ctx := context.Background()

	_, err := r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "apar", LocationID: "L1", AparCondition: "Baik"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "apar", LocationID: "L1", AparCode: "APAR-01", AparCondition: "Hilang"})
	assert.ErrorIs(t, err, domain.ErrInvalidCondition)

	ev, err := r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "apar", LocationID: "L1", AparCode: "APAR-01", AparCondition: "Perlu Perawatan"})
	require.NoError(t, err)
	assert.Equal(t, domain.AparConditionMaintenance, ev.AparCondition)
	assert.False(t, ev.CheckedAt.IsZero())
}

func TestRecord_Rejects(t *testing.T) {
	r := NewRecorder(newStore(), nil, zap.NewNop())
	ctx := context.Background()

	_, err := r.Record(ctx, RecordRequest{CheckType: "area", LocationID: "L1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "patrol", LocationID: "L1"})
	assert.ErrorIs(t, err, domain.ErrInvalidCheckType)

	_, err = r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "area"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = r.Record(ctx, RecordRequest{GuardID: "G1", CheckType: "area", QRPayload: "LOC-UNKNOWN"})
	assert.ErrorIs(t, err, domain.ErrUnknownLocation)
}

func TestRecord_DuplicatesAccepted(t *testing.T) {
	r := NewRecorder(newStore(), nil, zap.NewNop())
	req := RecordRequest{GuardID: "G1", CheckType: "area", LocationID: "L1", At: time.Date(2024, 4, 30, 9, 0, 0, 0, wib)}

	first, err := r.Record(context.Background(), req)
	require.NoError(t, err)
	second, err := r.Record(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestRecord_NotifyFailureDoesNotFailAppend(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("redis down")}
	r := NewRecorder(newStore(), notifier, zap.NewNop())

	ev, err := r.Record(context.Background(), RecordRequest{GuardID: "G1", CheckType: "area", LocationID: "L1"})
	require.NoError(t, err)
	assert.NotNil(t, ev)
	assert.Len(t, notifier.events, 1)
}

type failingWriter struct {
	*repository.MemoryStore
}

func (f failingWriter) AppendEvent(ctx context.Context, event *domain.InspectionEvent) error {
	return errors.New("disk full")
}

func TestRecord_AppendFailure(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewRecorder(failingWriter{newStore()}, notifier, zap.NewNop())

	_, err := r.Record(context.Background(), RecordRequest{GuardID: "G1", CheckType: "area", LocationID: "L1"})
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Empty(t, notifier.events)
}

type rejectingWriter struct {
	*repository.MemoryStore
}

func (f rejectingWriter) AppendEvent(ctx context.Context, event *domain.InspectionEvent) error {
	return fmt.Errorf("%w: guard_id %q is not a uuid", domain.ErrInvalidRequest, event.GuardID)
}

func TestRecord_WriterRejectionIsInvalidRequest(t *testing.T) {
	notifier := &recordingNotifier{}
	r := NewRecorder(rejectingWriter{newStore()}, notifier, zap.NewNop())

	_, err := r.Record(context.Background(), RecordRequest{GuardID: "G1", CheckType: "area", LocationID: "L1"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	assert.NotErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.Empty(t, notifier.events)
}

func TestStreamNotifier(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	n := NewStreamNotifier(client, "patrol:inspections")
	ev := &domain.InspectionEvent{
		EventID: "E1", GuardID: "G1", LocationID: "L1", CheckType: domain.CheckTypeApar,
		CheckedAt: time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, n.NotifyRecorded(context.Background(), ev))

	res, err := client.XRange(context.Background(), "patrol:inspections", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, res, 1)

	var got Notification
	require.NoError(t, json.Unmarshal([]byte(res[0].Values["data"].(string)), &got))
	assert.Equal(t, EventTypeRecorded, got.EventType)
	assert.Equal(t, "G1", got.GuardID)
	assert.Equal(t, domain.CheckTypeApar, got.CheckType)
	assert.True(t, got.CheckedAt.Equal(ev.CheckedAt))
}
