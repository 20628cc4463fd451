package aggregator

import (
	"context"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/opday"
	"github.com/jvlax-y/cekApar/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Scope 事件查询范围
// GuardID 为空表示不限保安（主管视图）；LocationIDs 非空时限定点位
type Scope struct {
	GuardID     string
	LocationIDs []string
}

// Key 聚合键
type Key struct {
	GuardID    string
	LocationID string
	CheckType  domain.CheckType
}

// EventIndex 每个 (guard, location, check_type) 只保留最早的一条事件
type EventIndex map[Key]domain.InspectionEvent

// Lookup 查找计入完成状态的事件
func (ix EventIndex) Lookup(guardID, locationID string, ct domain.CheckType) (domain.InspectionEvent, bool) {
	ev, ok := ix[Key{GuardID: guardID, LocationID: locationID, CheckType: ct}]
	return ev, ok
}

// EventAggregator 巡检事件聚合器
type EventAggregator struct {
	finder repository.EventFinder
	logger *zap.Logger
}

// NewEventAggregator 创建事件聚合器
func NewEventAggregator(finder repository.EventFinder, logger *zap.Logger) *EventAggregator {
	return &EventAggregator{finder: finder, logger: logger}
}

// GetEvents 在运营日时间窗内按巡检类型分别查询事件并建立索引
// 区域巡检与灭火器巡检来自不同流程，分开查询、互不合并
func (a *EventAggregator) GetEvents(ctx context.Context, scope Scope, window opday.Window) (EventIndex, error) {
	results := make([][]domain.InspectionEvent, len(domain.CheckTypes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, ct := range domain.CheckTypes {
		i, ct := i, ct
		eg.Go(func() error {
			events, err := a.finder.FindEvents(egCtx, repository.EventFilter{
				CheckType:   ct,
				GuardID:     scope.GuardID,
				LocationIDs: scope.LocationIDs,
				From:        window.Start,
				To:          window.End,
			})
			if err != nil {
				return domain.StorageError("find "+string(ct)+" events", err)
			}
			for j := range events {
				events[j].CheckType = ct
			}
			results[i] = events
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	ix := make(EventIndex)
	for _, events := range results {
		a.merge(ix, events, scope, window)
	}
	return ix, nil
}

// merge 把一批事件并入索引：窗口外、范围外或时间戳无效的事件不计入
func (a *EventAggregator) merge(ix EventIndex, events []domain.InspectionEvent, scope Scope, window opday.Window) {
	var locSet map[string]struct{}
	if len(scope.LocationIDs) > 0 {
		locSet = make(map[string]struct{}, len(scope.LocationIDs))
		for _, id := range scope.LocationIDs {
			locSet[id] = struct{}{}
		}
	}

	for _, ev := range events {
		if ev.CheckedAt.IsZero() {
			a.logger.Warn("Inspection event has no usable timestamp, skipped",
				zap.String("event_id", ev.EventID),
				zap.String("guard_id", ev.GuardID),
				zap.String("location_id", ev.LocationID),
			)
			continue
		}
		if !window.Contains(ev.CheckedAt) {
			continue
		}
		if scope.GuardID != "" && ev.GuardID != scope.GuardID {
			continue
		}
		if locSet != nil {
			if _, ok := locSet[ev.LocationID]; !ok {
				continue
			}
		}

		key := Key{GuardID: ev.GuardID, LocationID: ev.LocationID, CheckType: ev.CheckType}
		cur, ok := ix[key]
		if !ok || earlier(ev, cur) {
			ix[key] = ev
		}
	}
}

// earlier 时间早者优先；同一时刻按 event_id 字典序，保证结果确定
func earlier(a, b domain.InspectionEvent) bool {
	if a.CheckedAt.Equal(b.CheckedAt) {
		return a.EventID < b.EventID
	}
	return a.CheckedAt.Before(b.CheckedAt)
}
