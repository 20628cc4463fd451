package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/jvlax-y/cekApar/internal/domain"
	"github.com/jvlax-y/cekApar/internal/inspection"
	"github.com/jvlax-y/cekApar/internal/opday"
	"github.com/jvlax-y/cekApar/internal/projector"
	"github.com/jvlax-y/cekApar/internal/report"
)

// Projections 看板投影
type Projections interface {
	ProjectGuardBoard(ctx context.Context, guardID string, ref time.Time) (*projector.GuardBoard, error)
	ProjectRoster(ctx context.Context, dayID string) (*projector.Roster, error)
}

// Recorder 巡检记录写入
type Recorder interface {
	Record(ctx context.Context, req inspection.RecordRequest) (*domain.InspectionEvent, error)
}

// PatrolHandler 巡逻看板与巡检提交
type PatrolHandler struct {
	calc        *opday.Calculator
	projections Projections
	recorder    Recorder
	logger      *zap.Logger
	now         func() time.Time
}

// NewPatrolHandler 创建 Handler
func NewPatrolHandler(calc *opday.Calculator, projections Projections, recorder Recorder, logger *zap.Logger) *PatrolHandler {
	return &PatrolHandler{
		calc:        calc,
		projections: projections,
		recorder:    recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// GetOperationalDay GET /patrol/api/v1/operational-day?at=RFC3339
func (h *PatrolHandler) GetOperationalDay(w http.ResponseWriter, r *http.Request) {
	at, err := parseInstant(r.URL.Query().Get("at"), h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid at: "+err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(h.calc.Resolve(at)))
}

// GetGuardBoard GET /patrol/api/v1/guards/{guardId}/board?at=&q=
func (h *PatrolHandler) GetGuardBoard(w http.ResponseWriter, r *http.Request) {
	guardID := mux.Vars(r)["guardId"]
	at, err := parseInstant(r.URL.Query().Get("at"), h.now())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid at: "+err.Error()))
		return
	}

	board, err := h.projections.ProjectGuardBoard(r.Context(), guardID, at)
	if err != nil {
		h.fail(w, err, "Failed to project guard board", zap.String("guard_id", guardID))
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		board = board.Filter(q)
	}
	writeJSON(w, http.StatusOK, Ok(board))
}

// GetRoster GET /patrol/api/v1/roster?date=YYYY-MM-DD（默认当前运营日）
func (h *PatrolHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster, ok := h.roster(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, Ok(roster))
}

// ExportRoster GET /patrol/api/v1/roster/export?date=YYYY-MM-DD
func (h *PatrolHandler) ExportRoster(w http.ResponseWriter, r *http.Request) {
	roster, ok := h.roster(w, r)
	if !ok {
		return
	}

	data, err := report.ExportRoster(roster)
	if err != nil {
		h.fail(w, err, "Failed to export roster", zap.String("day_id", roster.DayID))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(roster.DayID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// RecordInspection POST /patrol/api/v1/inspections
func (h *PatrolHandler) RecordInspection(w http.ResponseWriter, r *http.Request) {
	var req inspection.RecordRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid body: "+err.Error()))
		return
	}

	ev, err := h.recorder.Record(r.Context(), req)
	if err != nil {
		h.fail(w, err, "Failed to record inspection",
			zap.String("guard_id", req.GuardID),
			zap.String("check_type", req.CheckType),
		)
		return
	}
	writeJSON(w, http.StatusOK, Ok(ev))
}

func (h *PatrolHandler) roster(w http.ResponseWriter, r *http.Request) (*projector.Roster, bool) {
	dayID := strings.TrimSpace(r.URL.Query().Get("date"))
	if dayID == "" {
		dayID = h.calc.Resolve(h.now()).DayID
	}

	roster, err := h.projections.ProjectRoster(r.Context(), dayID)
	if err != nil {
		h.fail(w, err, "Failed to project roster", zap.String("day_id", dayID))
		return nil, false
	}
	return roster, true
}

func (h *PatrolHandler) fail(w http.ResponseWriter, err error, msg string, fields ...zap.Field) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
	} else {
		h.logger.Debug(msg, append(fields, zap.Error(err))...)
	}
	writeJSON(w, status, Fail(err.Error()))
}
