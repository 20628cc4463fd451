package repository

import (
	"context"
	"time"

	"github.com/jvlax-y/cekApar/internal/domain"
)

// AssignmentFilter 排班查询条件（DayID 必填，GuardID 为空表示所有保安）
type AssignmentFilter struct {
	GuardID string
	DayID   string
}

// EventFilter 巡检事件查询条件
// 时间范围为 [From, To)；GuardID / LocationIDs 为空表示不限
type EventFilter struct {
	CheckType   domain.CheckType
	GuardID     string
	LocationIDs []string
	From        time.Time
	To          time.Time
}

// AssignmentFinder 排班查询
type AssignmentFinder interface {
	FindAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.ScheduleAssignment, error)
}

// EventFinder 巡检事件查询
type EventFinder interface {
	FindEvents(ctx context.Context, filter EventFilter) ([]domain.InspectionEvent, error)
}

// LocationFinder 点位目录
type LocationFinder interface {
	FindLocations(ctx context.Context) ([]domain.Location, error)
}

// ProfileFinder 保安资料查询
type ProfileFinder interface {
	FindGuardProfiles(ctx context.Context, ids []string) ([]domain.GuardProfile, error)
}

// Store 投影引擎使用的只读查询面
type Store interface {
	AssignmentFinder
	EventFinder
	LocationFinder
	ProfileFinder
}

// EventWriter 巡检记录写入（只追加）
type EventWriter interface {
	AppendEvent(ctx context.Context, event *domain.InspectionEvent) error
	LocationByQR(ctx context.Context, payload string) (*domain.Location, error)
	LocationByID(ctx context.Context, locationID string) (*domain.Location, error)
}
