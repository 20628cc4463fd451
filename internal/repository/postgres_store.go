package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jvlax-y/cekApar/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// PostgresStore 基于 PostgreSQL 的排班/巡检存储
// 表：locations, schedules, check_area_reports, apar_checks, profiles
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore 创建 PostgresStore
func NewPostgresStore(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// 确保实现了接口
var (
	_ Store       = (*PostgresStore)(nil)
	_ EventWriter = (*PostgresStore)(nil)
)

// FindAssignments 按运营日（及可选保安）查询排班
func (s *PostgresStore) FindAssignments(ctx context.Context, filter AssignmentFilter) ([]domain.ScheduleAssignment, error) {
	where := []string{"schedule_date = $1"}
	args := []any{filter.DayID}
	if filter.GuardID != "" {
		where = append(where, "user_id::text = $2")
		args = append(args, filter.GuardID)
	}

	query := `
		SELECT
			user_id::text,
			location_id::text,
			schedule_date::text
		FROM schedules
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY user_id, location_id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	assignments := []domain.ScheduleAssignment{}
	for rows.Next() {
		var a domain.ScheduleAssignment
		if err := rows.Scan(&a.GuardID, &a.LocationID, &a.DayID); err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schedules: %w", err)
	}

	return assignments, nil
}

// FindEvents 查询某一巡检类型在 [From, To) 内的事件
// 两类巡检分表存储，调用方按类型分别查询
func (s *PostgresStore) FindEvents(ctx context.Context, filter EventFilter) ([]domain.InspectionEvent, error) {
	var columns, table string
	switch filter.CheckType {
	case domain.CheckTypeArea:
		columns = "report_id::text, user_id::text, location_id::text, created_at, photo_url, '' AS apar_code, '' AS kondisi"
		table = "check_area_reports"
	case domain.CheckTypeApar:
		columns = "check_id::text, user_id::text, location_id::text, created_at, photo_url, COALESCE(apar_code, ''), COALESCE(kondisi, '')"
		table = "apar_checks"
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCheckType, filter.CheckType)
	}

	where := []string{"created_at >= $1", "created_at < $2"}
	args := []any{filter.From, filter.To}
	argN := 3
	if filter.GuardID != "" {
		where = append(where, fmt.Sprintf("user_id::text = $%d", argN))
		args = append(args, filter.GuardID)
		argN++
	}
	if len(filter.LocationIDs) > 0 {
		where = append(where, fmt.Sprintf("location_id::text = ANY($%d)", argN))
		args = append(args, pq.Array(filter.LocationIDs))
	}

	query := `
		SELECT ` + columns + `
		FROM ` + table + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	events := []domain.InspectionEvent{}
	for rows.Next() {
		var (
			ev        domain.InspectionEvent
			checkedAt sql.NullTime
			photoURL  sql.NullString
			condition string
		)
		if err := rows.Scan(&ev.EventID, &ev.GuardID, &ev.LocationID, &checkedAt, &photoURL, &ev.AparCode, &condition); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		// 时间戳缺失只影响这一条记录
		if !checkedAt.Valid {
			s.logger.Warn("Skipping inspection without timestamp",
				zap.String("table", table),
				zap.String("event_id", ev.EventID),
			)
			continue
		}
		ev.CheckType = filter.CheckType
		ev.CheckedAt = checkedAt.Time
		ev.AparCondition = domain.AparCondition(condition)
		if photoURL.Valid && photoURL.String != "" {
			ev.EvidenceURL = &photoURL.String
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}

	return events, nil
}

// FindLocations 全量点位目录
func (s *PostgresStore) FindLocations(ctx context.Context) ([]domain.Location, error) {
	query := `
		SELECT
			id::text,
			name,
			posisi_gedung,
			qr_code_data
		FROM locations
		ORDER BY name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	locations := []domain.Location{}
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, *loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate locations: %w", err)
	}

	return locations, nil
}

// FindGuardProfiles 批量查询保安资料
func (s *PostgresStore) FindGuardProfiles(ctx context.Context, ids []string) ([]domain.GuardProfile, error) {
	if len(ids) == 0 {
		return []domain.GuardProfile{}, nil
	}

	query := `
		SELECT
			id::text,
			COALESCE(first_name, ''),
			COALESCE(last_name, '')
		FROM profiles
		WHERE id::text = ANY($1)
	`

	rows, err := s.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []domain.GuardProfile{}
	for rows.Next() {
		var p domain.GuardProfile
		if err := rows.Scan(&p.GuardID, &p.FirstName, &p.LastName); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	return profiles, nil
}

// AppendEvent 追加一条巡检记录
// user_id 列为 UUID，非 UUID 的保安 ID 作为无效请求拒绝，不下发到数据库
func (s *PostgresStore) AppendEvent(ctx context.Context, event *domain.InspectionEvent) error {
	if _, err := uuid.Parse(event.GuardID); err != nil {
		return fmt.Errorf("%w: guard_id %q is not a uuid", domain.ErrInvalidRequest, event.GuardID)
	}

	var photoURL interface{}
	if event.EvidenceURL != nil {
		photoURL = *event.EvidenceURL
	}

	var err error
	switch event.CheckType {
	case domain.CheckTypeArea:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO check_area_reports (report_id, user_id, location_id, created_at, photo_url)
			VALUES ($1, $2, $3, $4, $5)
		`, event.EventID, event.GuardID, event.LocationID, event.CheckedAt, photoURL)
	case domain.CheckTypeApar:
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO apar_checks (check_id, user_id, location_id, created_at, photo_url, apar_code, kondisi)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, event.EventID, event.GuardID, event.LocationID, event.CheckedAt, photoURL,
			event.AparCode, string(event.AparCondition))
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidCheckType, event.CheckType)
	}
	if err != nil {
		return fmt.Errorf("failed to insert %s inspection: %w", event.CheckType, err)
	}

	return nil
}

// LocationByQR 按二维码内容查点位
func (s *PostgresStore) LocationByQR(ctx context.Context, payload string) (*domain.Location, error) {
	return s.findOneLocation(ctx, "qr_code_data = $1", payload)
}

// LocationByID 按 ID 查点位
func (s *PostgresStore) LocationByID(ctx context.Context, locationID string) (*domain.Location, error) {
	return s.findOneLocation(ctx, "id::text = $1", locationID)
}

func (s *PostgresStore) findOneLocation(ctx context.Context, cond string, arg string) (*domain.Location, error) {
	query := `
		SELECT
			id::text,
			name,
			posisi_gedung,
			qr_code_data
		FROM locations
		WHERE ` + cond

	loc, err := scanLocation(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownLocation, arg)
		}
		return nil, err
	}
	return loc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*domain.Location, error) {
	var (
		loc  domain.Location
		zone sql.NullString
	)
	if err := row.Scan(&loc.LocationID, &loc.Name, &zone, &loc.QRPayload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}
	if zone.Valid && zone.String != "" {
		loc.Zone = &zone.String
	}
	return &loc, nil
}
