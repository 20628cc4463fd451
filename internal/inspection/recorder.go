package inspection

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/repository"
)

// RecordRequest 一次巡检提交
// QRPayload 与 LocationID 二选一，QRPayload 优先
type RecordRequest struct {
	GuardID       string    `json:"guard_id"`
	CheckType     string    `json:"check_type"`
	QRPayload     string    `json:"qr_payload,omitempty"`
	LocationID    string    `json:"location_id,omitempty"`
	EvidenceURL   string    `json:"evidence_url,omitempty"`
	AparCode      string    `json:"apar_code,omitempty"`
	AparCondition string    `json:"apar_condition,omitempty"`
	At            time.Time `json:"at,omitempty"`
}

// Recorder 巡检记录写入：校验 → 解析点位 → 追加事件 → 通知
type Recorder struct {
	writer   repository.EventWriter
	notifier Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewRecorder notifier 为 nil 时不发通知
func NewRecorder(writer repository.EventWriter, notifier Notifier, logger *zap.Logger) *Recorder {
	return &Recorder{
		writer:   writer,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Record 追加一条巡检事件；重复提交同样追加，由读侧按最早时间去重
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (*domain.InspectionEvent, error) {
	guardID := strings.TrimSpace(req.GuardID)
	if guardID == "" {
		return nil, fmt.Errorf("%w: guard_id is required", domain.ErrInvalidRequest)
	}
	ct, err := domain.ParseCheckType(strings.ToLower(strings.TrimSpace(req.CheckType)))
	if err != nil {
		return nil, err
	}

	ev := &domain.InspectionEvent{
		EventID:   uuid.NewString(),
		GuardID:   guardID,
		CheckType: ct,
		CheckedAt: req.At,
	}
	if ev.CheckedAt.IsZero() {
		ev.CheckedAt = r.now()
	}
	if url := strings.TrimSpace(req.EvidenceURL); url != "" {
		ev.EvidenceURL = &url
	}

	if ct == domain.CheckTypeApar {
		ev.AparCode = strings.TrimSpace(req.AparCode)
		if ev.AparCode == "" {
			return nil, fmt.Errorf("%w: apar_code is required", domain.ErrInvalidRequest)
		}
		cond, err := domain.ParseAparCondition(strings.TrimSpace(req.AparCondition))
		if err != nil {
			return nil, err
		}
		ev.AparCondition = cond
	}

	loc, err := r.locate(ctx, req)
	if err != nil {
		return nil, err
	}
	ev.LocationID = loc.LocationID

	if err := r.writer.AppendEvent(ctx, ev); err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			return nil, err
		}
		return nil, domain.StorageError("append "+string(ct)+" event", err)
	}

	r.logger.Info("Inspection recorded",
		zap.String("event_id", ev.EventID),
		zap.String("guard_id", ev.GuardID),
		zap.String("location_id", ev.LocationID),
		zap.String("check_type", string(ev.CheckType)),
	)

	if r.notifier != nil {
		if err := r.notifier.NotifyRecorded(ctx, ev); err != nil {
			r.logger.Warn("Failed to publish inspection notification",
				zap.String("event_id", ev.EventID),
				zap.Error(err),
			)
		}
	}

	return ev, nil
}

func (r *Recorder) locate(ctx context.Context, req RecordRequest) (*domain.Location, error) {
	var (
		loc *domain.Location
		err error
	)
	switch {
	case strings.TrimSpace(req.QRPayload) != "":
		loc, err = r.writer.LocationByQR(ctx, strings.TrimSpace(req.QRPayload))
	case strings.TrimSpace(req.LocationID) != "":
		loc, err = r.writer.LocationByID(ctx, strings.TrimSpace(req.LocationID))
	default:
		return nil, fmt.Errorf("%w: qr_payload or location_id is required", domain.ErrInvalidRequest)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUnknownLocation) {
			return nil, err
		}
		return nil, domain.StorageError("find location", err)
	}
	return loc, nil
}
