package domain

import (
	"fmt"
	"time"
)

// CheckType 巡检类型
type CheckType string

const (
	CheckTypeArea CheckType = "area" // 区域巡检（check_area_reports）
	CheckTypeApar CheckType = "apar" // 灭火器巡检（apar_checks）
)

// CheckTypes 所有巡检类型，聚合时逐个独立查询
var CheckTypes = []CheckType{CheckTypeArea, CheckTypeApar}

// ParseCheckType 解析巡检类型
func ParseCheckType(s string) (CheckType, error) {
	switch CheckType(s) {
	case CheckTypeArea, CheckTypeApar:
		return CheckType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCheckType, s)
}

// AparCondition 灭火器状况
type AparCondition string

const (
	AparConditionGood        AparCondition = "Baik"
	AparConditionBroken      AparCondition = "Rusak"
	AparConditionMaintenance AparCondition = "Perlu Perawatan"
)

// ParseAparCondition 解析灭火器状况
func ParseAparCondition(s string) (AparCondition, error) {
	switch AparCondition(s) {
	case AparConditionGood, AparConditionBroken, AparConditionMaintenance:
		return AparCondition(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCondition, s)
}

// InspectionEvent 巡检事件（只追加，不修改）
// CheckedAt 为绝对时间；同一 (guard, location, check_type) 在同一运营日内可有多条，
// 以最早一条计入完成状态，其余保留用于审计
type InspectionEvent struct {
	EventID     string    `json:"event_id"`
	GuardID     string    `json:"guard_id"`
	LocationID  string    `json:"location_id"`
	CheckType   CheckType `json:"check_type"`
	CheckedAt   time.Time `json:"checked_at"`
	EvidenceURL *string   `json:"evidence_url,omitempty"`

	// 仅 APAR 巡检
	AparCode      string        `json:"apar_code,omitempty"`
	AparCondition AparCondition `json:"apar_condition,omitempty"`
}
