package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jvlax-y/cekApar/internal/domain"
)

// MemoryStore 内存存储：DB 未启用时用于联调，也用于单元测试
type MemoryStore struct {
	mu          sync.RWMutex
	locations   map[string]domain.Location
	assignments map[string]domain.ScheduleAssignment
	events      []domain.InspectionEvent
	profiles    map[string]domain.GuardProfile
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locations:   make(map[string]domain.Location),
		assignments: make(map[string]domain.ScheduleAssignment),
		profiles:    make(map[string]domain.GuardProfile),
	}
}

var (
	_ Store       = (*MemoryStore)(nil)
	_ EventWriter = (*MemoryStore)(nil)
)

// PutLocation 新增或覆盖点位
func (m *MemoryStore) PutLocation(loc domain.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[loc.LocationID] = loc
}

// PutAssignment 新增排班；重复的 (guard, location, day) 忽略
func (m *MemoryStore) PutAssignment(a domain.ScheduleAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.Key()] = a
}

// PutProfile 新增或覆盖保安资料
func (m *MemoryStore) PutProfile(p domain.GuardProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.GuardID] = p
}

func (m *MemoryStore) FindAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.ScheduleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.ScheduleAssignment{}
	for _, a := range m.assignments {
		if a.DayID != filter.DayID {
			continue
		}
		if filter.GuardID != "" && a.GuardID != filter.GuardID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out, nil
}

func (m *MemoryStore) FindEvents(ctx context.Context, filter EventFilter) ([]domain.InspectionEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var locSet map[string]struct{}
	if len(filter.LocationIDs) > 0 {
		locSet = make(map[string]struct{}, len(filter.LocationIDs))
		for _, id := range filter.LocationIDs {
			locSet[id] = struct{}{}
		}
	}

	out := []domain.InspectionEvent{}
	for _, ev := range m.events {
		if ev.CheckType != filter.CheckType {
			continue
		}
		if ev.CheckedAt.Before(filter.From) || !ev.CheckedAt.Before(filter.To) {
			continue
		}
		if filter.GuardID != "" && ev.GuardID != filter.GuardID {
			continue
		}
		if locSet != nil {
			if _, ok := locSet[ev.LocationID]; !ok {
				continue
			}
		}
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckedAt.Before(out[j].CheckedAt) })
	return out, nil
}

func (m *MemoryStore) FindLocations(ctx context.Context) ([]domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Location, 0, len(m.locations))
	for _, loc := range m.locations {
		out = append(out, loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) FindGuardProfiles(ctx context.Context, ids []string) ([]domain.GuardProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []domain.GuardProfile{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// AppendEvent 追加巡检记录（重复提交同样保留）
func (m *MemoryStore) AppendEvent(ctx context.Context, event *domain.InspectionEvent) error {
	if event.CheckType != domain.CheckTypeArea && event.CheckType != domain.CheckTypeApar {
		return fmt.Errorf("%w: %q", domain.ErrInvalidCheckType, event.CheckType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *MemoryStore) LocationByQR(ctx context.Context, payload string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, loc := range m.locations {
		if loc.QRPayload == payload {
			l := loc
			return &l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, payload)
}

func (m *MemoryStore) LocationByID(ctx context.Context, locationID string) (*domain.Location, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	loc, ok := m.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, locationID)
	}
	return &loc, nil
}
