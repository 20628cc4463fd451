package projector

import (
	"sort"
	"strings"
	"time"

	"github.com/jvlax-y/cekApar/internal/aggregator"
	"github.com/jvlax-y/cekApar/internal/domain"
)

// AssignmentStatus 一条排班的完成状态（只读投影，不落库）
type AssignmentStatus struct {
	Assignment    domain.ScheduleAssignment `json:"assignment"`
	Location      *domain.Location          `json:"location,omitempty"`
	IsAreaChecked bool                      `json:"is_area_checked"`
	IsAparChecked bool                      `json:"is_apar_checked"`
	AreaCheckedAt *time.Time                `json:"area_checked_at"`
	AparCheckedAt *time.Time                `json:"apar_checked_at"`
	EvidenceURL   *string                   `json:"evidence_url"`

	AparCode      string               `json:"apar_code,omitempty"`
	AparCondition domain.AparCondition `json:"apar_condition,omitempty"`
}

func (s AssignmentStatus) AreaChecked() bool { return s.IsAreaChecked }
func (s AssignmentStatus) AparChecked() bool { return s.IsAparChecked }

// LocationName 点位名称；目录中缺失时退回点位 ID
func (s AssignmentStatus) LocationName() string {
	if s.Location != nil && s.Location.Name != "" {
		return s.Location.Name
	}
	return s.Assignment.LocationID
}

// buildStatus 用 (guard, location, area) 与 (guard, location, apar) 两个键查索引
func buildStatus(a domain.ScheduleAssignment, loc *domain.Location, ix aggregator.EventIndex) AssignmentStatus {
	st := AssignmentStatus{Assignment: a, Location: loc}

	if ev, ok := ix.Lookup(a.GuardID, a.LocationID, domain.CheckTypeArea); ok {
		t := ev.CheckedAt
		st.IsAreaChecked = true
		st.AreaCheckedAt = &t
		st.EvidenceURL = ev.EvidenceURL
	}
	if ev, ok := ix.Lookup(a.GuardID, a.LocationID, domain.CheckTypeApar); ok {
		t := ev.CheckedAt
		st.IsAparChecked = true
		st.AparCheckedAt = &t
		st.AparCode = ev.AparCode
		st.AparCondition = ev.AparCondition
		if st.EvidenceURL == nil {
			st.EvidenceURL = ev.EvidenceURL
		}
	}
	return st
}

func sortStatuses(statuses []AssignmentStatus) {
	sort.SliceStable(statuses, func(i, j int) bool {
		ni, nj := statuses[i].LocationName(), statuses[j].LocationName()
		if ni != nj {
			return ni < nj
		}
		return statuses[i].Assignment.LocationID < statuses[j].Assignment.LocationID
	})
}

// filterStatuses 点位名称不区分大小写的包含匹配
func filterStatuses(statuses []AssignmentStatus, query string) []AssignmentStatus {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return statuses
	}
	out := make([]AssignmentStatus, 0, len(statuses))
	for _, st := range statuses {
		if strings.Contains(strings.ToLower(st.LocationName()), q) {
			out = append(out, st)
		}
	}
	return out
}
