package aggregator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	agg "github.com/jvlax-y/cekApar/internal/aggregator"
	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/opday"
	"github.com/jvlax-y/cekApar/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var wib = time.FixedZone("WIB", 7*3600)

// fakeEventFinder 按巡检类型返回预置事件，并记录查询条件
type fakeEventFinder struct {
	mu      sync.Mutex
	byType  map[domain.CheckType][]domain.InspectionEvent
	errType domain.CheckType
	filters []repository.EventFilter
}

func (f *fakeEventFinder) FindEvents(ctx context.Context, filter repository.EventFilter) ([]domain.InspectionEvent, error) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if filter.CheckType == f.errType {
		return nil, errors.New("relation does not exist")
	}
	out := make([]domain.InspectionEvent, len(f.byType[filter.CheckType]))
	copy(out, f.byType[filter.CheckType])
	return out, nil
}

func window(t *testing.T) opday.Window {
	w, err := opday.ForDay("2024-04-30", 6, 420)
	require.NoError(t, err)
	return w
}

func at(hour, min int) time.Time {
	return time.Date(2024, 4, 30, hour, min, 0, 0, wib)
}

func TestGetEvents_EarliestWins(t *testing.T) {
	finder := &fakeEventFinder{byType: map[domain.CheckType][]domain.InspectionEvent{
		domain.CheckTypeArea: {
			{EventID: "late", GuardID: "G1", LocationID: "L1", CheckedAt: at(11, 0)},
			{EventID: "early", GuardID: "G1", LocationID: "L1", CheckedAt: at(9, 0)},
		},
	}}
	a := agg.NewEventAggregator(finder, zap.NewNop())

	ix, err := a.GetEvents(context.Background(), agg.Scope{GuardID: "G1"}, window(t))

	require.NoError(t, err)
	ev, ok := ix.Lookup("G1", "L1", domain.CheckTypeArea)
	require.True(t, ok)
	assert.Equal(t, "early", ev.EventID)

	_, ok = ix.Lookup("G1", "L1", domain.CheckTypeApar)
	assert.False(t, ok)
}

func TestGetEvents_TieBrokenByEventID(t *testing.T) {
	finder := &fakeEventFinder{byType: map[domain.CheckType][]domain.InspectionEvent{
		domain.CheckTypeApar: {
			{EventID: "b", GuardID: "G1", LocationID: "L1", CheckedAt: at(9, 0)},
			{EventID: "a", GuardID: "G1", LocationID: "L1", CheckedAt: at(9, 0)},
		},
	}}
	a := agg.NewEventAggregator(finder, zap.NewNop())

	ix, err := a.GetEvents(context.Background(), agg.Scope{}, window(t))

	require.NoError(t, err)
	ev, _ := ix.Lookup("G1", "L1", domain.CheckTypeApar)
	assert.Equal(t, "a", ev.EventID)
}

func TestGetEvents_WindowBoundary(t *testing.T) {
	w := window(t)
	finder := &fakeEventFinder{byType: map[domain.CheckType][]domain.InspectionEvent{
		domain.CheckTypeArea: {
			{EventID: "at-start", GuardID: "G1", LocationID: "L1", CheckedAt: w.Start},
			{EventID: "at-end", GuardID: "G1", LocationID: "L2", CheckedAt: w.End},
		},
	}}
	a := agg.NewEventAggregator(finder, zap.NewNop())

	ix, err := a.GetEvents(context.Background(), agg.Scope{GuardID: "G1"}, w)

	require.NoError(t, err)
	_, ok := ix.Lookup("G1", "L1", domain.CheckTypeArea)
	assert.True(t, ok)
	_, ok = ix.Lookup("G1", "L2", domain.CheckTypeArea)
	assert.False(t, ok)
}

func TestGetEvents_ScopeAndZeroTimestampFiltered(t *testing.T) {
	finder := &fakeEventFinder{byType: map[domain.CheckType][]domain.InspectionEvent{
		domain.CheckTypeArea: {
			{EventID: "other-guard", GuardID: "G2", LocationID: "L1", CheckedAt: at(9, 0)},
			{EventID: "other-loc", GuardID: "G1", LocationID: "L9", CheckedAt: at(9, 0)},
			{EventID: "no-time", GuardID: "G1", LocationID: "L1"},
			{EventID: "ok", GuardID: "G1", LocationID: "L1", CheckedAt: at(10, 0)},
		},
	}}
	a := agg.NewEventAggregator(finder, zap.NewNop())

	ix, err := a.GetEvents(context.Background(), agg.Scope{GuardID: "G1", LocationIDs: []string{"L1"}}, window(t))

	require.NoError(t, err)
	assert.Len(t, ix, 1)
	ev, _ := ix.Lookup("G1", "L1", domain.CheckTypeArea)
	assert.Equal(t, "ok", ev.EventID)
}

func TestGetEvents_QueriesEachCheckTypeSeparately(t *testing.T) {
	finder := &fakeEventFinder{byType: map[domain.CheckType][]domain.InspectionEvent{
		domain.CheckTypeArea: {{EventID: "x", GuardID: "G1", LocationID: "L1", CheckedAt: at(9, 0)}},
		domain.CheckTypeApar: {{EventID: "x", GuardID: "G1", LocationID: "L1", CheckedAt: at(9, 30)}},
	}}
	a := agg.NewEventAggregator(finder, zap.NewNop())
	w := window(t)

	ix, err := a.GetEvents(context.Background(), agg.Scope{GuardID: "G1", LocationIDs: []string{"L1"}}, w)

	require.NoError(t, err)
	assert.Len(t, ix, 2)
	require.Len(t, finder.filters, 2)
	types := map[domain.CheckType]bool{}
	for _, f := range finder.filters {
		types[f.CheckType] = true
		assert.Equal(t, "G1", f.GuardID)
		assert.Equal(t, []string{"L1"}, f.LocationIDs)
		assert.True(t, f.From.Equal(w.Start))
		assert.True(t, f.To.Equal(w.End))
	}
	assert.True(t, types[domain.CheckTypeArea])
	assert.True(t, types[domain.CheckTypeApar])
}

func TestGetEvents_StorageFailure(t *testing.T) {
	finder := &fakeEventFinder{errType: domain.CheckTypeApar}
	a := agg.NewEventAggregator(finder, zap.NewNop())

	_, err := a.GetEvents(context.Background(), agg.Scope{}, window(t))

	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}
