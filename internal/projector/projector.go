package projector

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/jvlax-y/cekApar/internal/aggregator"
	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/metrics"
	"github.com/jvlax-y/cekApar/internal/opday"
	"github.com/jvlax-y/cekApar/internal/repository"
	"github.com/jvlax-y/cekApar/internal/resolver"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UnknownGuardName 资料缺失时的显示名
const UnknownGuardName = "N/A"

// GuardBoard 保安个人看板
type GuardBoard struct {
	GuardID     string             `json:"guard_id"`
	DayID       string             `json:"day_id"`
	Window      opday.Window       `json:"window"`
	IsScheduled bool               `json:"is_scheduled"`
	Statuses    []AssignmentStatus `json:"statuses"`
	Summary     metrics.Summary    `json:"summary"`
}

// Filter 按点位名称搜索，返回新的看板（统计随之重算，原看板不变）
func (b *GuardBoard) Filter(query string) *GuardBoard {
	out := *b
	out.Statuses = filterStatuses(b.Statuses, query)
	out.Summary = metrics.Summarize(out.Statuses)
	return &out
}

// GuardRoster 主管看板中的一行
type GuardRoster struct {
	GuardID                string             `json:"guard_id"`
	GuardName              string             `json:"guard_name"`
	LocationClassification Classification     `json:"location_classification"`
	Statuses               []AssignmentStatus `json:"statuses"`
	Summary                metrics.Summary    `json:"summary"`
	IsComplete             bool               `json:"is_complete"`
}

// Roster 主管看板
type Roster struct {
	DayID   string                `json:"day_id"`
	Window  opday.Window          `json:"window"`
	Guards  []GuardRoster         `json:"guards"`
	Summary metrics.RosterSummary `json:"summary"`
}

// Projector 状态投影：排班 × 巡检事件 → 完成状态
// 每次调用都从存储重新计算，不缓存
type Projector struct {
	calc      *opday.Calculator
	resolver  *resolver.AssignmentResolver
	events    *aggregator.EventAggregator
	locations repository.LocationFinder
	profiles  repository.ProfileFinder
	logger    *zap.Logger
}

// NewProjector 创建投影器
func NewProjector(
	calc *opday.Calculator,
	res *resolver.AssignmentResolver,
	events *aggregator.EventAggregator,
	locations repository.LocationFinder,
	profiles repository.ProfileFinder,
	logger *zap.Logger,
) *Projector {
	return &Projector{
		calc:      calc,
		resolver:  res,
		events:    events,
		locations: locations,
		profiles:  profiles,
		logger:    logger,
	}
}

// Calculator 返回投影使用的运营日计算器
func (p *Projector) Calculator() *opday.Calculator {
	return p.calc
}

// ProjectGuardBoard 计算保安在 ref 所在运营日的看板
// 排班、事件、点位目录三路并发查询，任一失败则整体失败
func (p *Projector) ProjectGuardBoard(ctx context.Context, guardID string, ref time.Time) (*GuardBoard, error) {
	guardID = strings.TrimSpace(guardID)
	if guardID == "" {
		return nil, domain.ErrInvalidRequest
	}
	w := p.calc.Resolve(ref)

	var (
		assignments []domain.ScheduleAssignment
		ix          aggregator.EventIndex
		catalogue   []domain.Location
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		assignments, err = p.resolver.GetAssignments(egCtx, guardID, w.DayID)
		return err
	})
	eg.Go(func() error {
		var err error
		ix, err = p.events.GetEvents(egCtx, aggregator.Scope{GuardID: guardID}, w)
		return err
	})
	eg.Go(func() error {
		var err error
		catalogue, err = p.findLocations(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		p.logger.Warn("Guard board projection failed",
			zap.String("guard_id", guardID),
			zap.String("day_id", w.DayID),
			zap.Error(err),
		)
		return nil, err
	}

	board := &GuardBoard{
		GuardID:  guardID,
		DayID:    w.DayID,
		Window:   w,
		Statuses: []AssignmentStatus{},
	}
	if len(assignments) == 0 {
		return board, nil
	}

	byID := indexLocations(catalogue)
	for _, a := range assignments {
		board.Statuses = append(board.Statuses, buildStatus(a, byID[a.LocationID], ix))
	}
	sortStatuses(board.Statuses)
	board.IsScheduled = true
	board.Summary = metrics.Summarize(board.Statuses)
	return board, nil
}

// ProjectRoster 计算运营日所有保安的主管看板
// 先解析排班，再按涉及的点位限定事件查询范围
func (p *Projector) ProjectRoster(ctx context.Context, dayID string) (*Roster, error) {
	w, err := p.calc.ForDay(dayID)
	if err != nil {
		return nil, err
	}

	var (
		assignments []domain.ScheduleAssignment
		catalogue   []domain.Location
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		assignments, err = p.resolver.GetAssignmentsForDay(egCtx, w.DayID)
		return err
	})
	eg.Go(func() error {
		var err error
		catalogue, err = p.findLocations(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		p.logger.Warn("Roster projection failed", zap.String("day_id", w.DayID), zap.Error(err))
		return nil, err
	}

	roster := &Roster{DayID: w.DayID, Window: w, Guards: []GuardRoster{}}
	if len(assignments) == 0 {
		return roster, nil
	}

	guardIDs, locationIDs := involved(assignments)

	var (
		ix       aggregator.EventIndex
		profiles []domain.GuardProfile
	)
	eg, egCtx = errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		ix, err = p.events.GetEvents(egCtx, aggregator.Scope{LocationIDs: locationIDs}, w)
		return err
	})
	eg.Go(func() error {
		var err error
		profiles, err = p.profiles.FindGuardProfiles(egCtx, guardIDs)
		if err != nil {
			return domain.StorageError("find guard profiles", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		p.logger.Warn("Roster projection failed", zap.String("day_id", w.DayID), zap.Error(err))
		return nil, err
	}

	names := make(map[string]string, len(profiles))
	for _, pr := range profiles {
		if name := pr.DisplayName(); name != "" {
			names[pr.GuardID] = name
		}
	}

	byGuard := make(map[string][]domain.ScheduleAssignment, len(guardIDs))
	for _, a := range assignments {
		byGuard[a.GuardID] = append(byGuard[a.GuardID], a)
	}

	byID := indexLocations(catalogue)
	parts := make([]metrics.Summary, 0, len(guardIDs))
	for _, gid := range guardIDs {
		rows := byGuard[gid]
		statuses := make([]AssignmentStatus, 0, len(rows))
		assigned := make([]string, 0, len(rows))
		for _, a := range rows {
			statuses = append(statuses, buildStatus(a, byID[a.LocationID], ix))
			assigned = append(assigned, a.LocationID)
		}
		sortStatuses(statuses)

		name, ok := names[gid]
		if !ok {
			name = UnknownGuardName
		}
		summary := metrics.Summarize(statuses)
		roster.Guards = append(roster.Guards, GuardRoster{
			GuardID:                gid,
			GuardName:              name,
			LocationClassification: Classify(assigned, catalogue),
			Statuses:               statuses,
			Summary:                summary,
			IsComplete:             summary.Total > 0 && summary.CompletedBoth == summary.Total,
		})
		parts = append(parts, summary)
	}

	sort.SliceStable(roster.Guards, func(i, j int) bool {
		gi, gj := roster.Guards[i], roster.Guards[j]
		if gi.GuardName != gj.GuardName {
			return gi.GuardName < gj.GuardName
		}
		return gi.GuardID < gj.GuardID
	})

	roster.Summary = metrics.SummarizeRoster(parts...)
	return roster, nil
}

func (p *Projector) findLocations(ctx context.Context) ([]domain.Location, error) {
	locs, err := p.locations.FindLocations(ctx)
	if err != nil {
		return nil, domain.StorageError("find locations", err)
	}
	return locs, nil
}

func indexLocations(catalogue []domain.Location) map[string]*domain.Location {
	byID := make(map[string]*domain.Location, len(catalogue))
	for i := range catalogue {
		byID[catalogue[i].LocationID] = &catalogue[i]
	}
	return byID
}

// involved 排班涉及的保安与点位（去重、排序）
func involved(assignments []domain.ScheduleAssignment) (guardIDs, locationIDs []string) {
	gs := make(map[string]struct{})
	ls := make(map[string]struct{})
	for _, a := range assignments {
		if _, ok := gs[a.GuardID]; !ok {
			gs[a.GuardID] = struct{}{}
			guardIDs = append(guardIDs, a.GuardID)
		}
		if _, ok := ls[a.LocationID]; !ok {
			ls[a.LocationID] = struct{}{}
			locationIDs = append(locationIDs, a.LocationID)
		}
	}
	sort.Strings(guardIDs)
	sort.Strings(locationIDs)
	return guardIDs, locationIDs
}
