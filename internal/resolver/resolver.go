package resolver

import (
	"context"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/repository"

	"go.uber.org/zap"
)

// AssignmentResolver 解析某运营日的排班
type AssignmentResolver struct {
	finder repository.AssignmentFinder
	logger *zap.Logger
}

// NewAssignmentResolver 创建排班解析器
func NewAssignmentResolver(finder repository.AssignmentFinder, logger *zap.Logger) *AssignmentResolver {
	return &AssignmentResolver{finder: finder, logger: logger}
}

// GetAssignments 返回保安在该运营日的排班
// 空结果表示"今日无排班"，不是错误
func (r *AssignmentResolver) GetAssignments(ctx context.Context, guardID, dayID string) ([]domain.ScheduleAssignment, error) {
	rows, err := r.finder.FindAssignments(ctx, repository.AssignmentFilter{GuardID: guardID, DayID: dayID})
	if err != nil {
		return nil, domain.StorageError("find assignments", err)
	}
	return r.dedupe(rows, guardID, dayID), nil
}

// GetAssignmentsForDay 返回该运营日所有保安的排班（由投影层按保安分组）
func (r *AssignmentResolver) GetAssignmentsForDay(ctx context.Context, dayID string) ([]domain.ScheduleAssignment, error) {
	rows, err := r.finder.FindAssignments(ctx, repository.AssignmentFilter{DayID: dayID})
	if err != nil {
		return nil, domain.StorageError("find assignments for day", err)
	}
	return r.dedupe(rows, "", dayID), nil
}

// dedupe 去掉重复的 (guard, location, day)，并丢弃与查询条件不符的行
func (r *AssignmentResolver) dedupe(rows []domain.ScheduleAssignment, guardID, dayID string) []domain.ScheduleAssignment {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.ScheduleAssignment, 0, len(rows))
	for _, a := range rows {
		if a.DayID != dayID || (guardID != "" && a.GuardID != guardID) {
			continue
		}
		if _, dup := seen[a.Key()]; dup {
			r.logger.Debug("Duplicate schedule assignment ignored",
				zap.String("guard_id", a.GuardID),
				zap.String("location_id", a.LocationID),
				zap.String("day_id", a.DayID),
			)
			continue
		}
		seen[a.Key()] = struct{}{}
		out = append(out, a)
	}
	return out
}
