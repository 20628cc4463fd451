package projector

import (
	"sort"

	"github.com/jvlax-y/cekApar/internal/domain"
)

// ClassificationKind 排班点位集合的分类结果
type ClassificationKind string

const (
	ClassAllLocations ClassificationKind = "all"
	ClassZone         ClassificationKind = "zone"
	ClassMixed        ClassificationKind = "mixed"
	ClassUnassigned   ClassificationKind = "unassigned"

	LabelAllLocations = "all locations"
	LabelMixed        = "mixed locations"
	LabelUnassigned   = "unassigned"
)

// Classification 仅用于主管看板的简短标签，不代表任何权限含义
type Classification struct {
	Kind  ClassificationKind `json:"kind"`
	Label string             `json:"label"`
}

// Classify 比较保安的排班点位集合与按区域划分的完整点位目录
//   - 等于全部点位 → "all locations"
//   - 恰好等于某一区域的全部点位 → 区域名
//   - 非空但都不匹配 → "mixed locations"
//   - 空 → "unassigned"
func Classify(assigned []string, catalogue []domain.Location) Classification {
	set := make(map[string]struct{}, len(assigned))
	for _, id := range assigned {
		set[id] = struct{}{}
	}
	if len(set) == 0 {
		return Classification{Kind: ClassUnassigned, Label: LabelUnassigned}
	}

	all := make(map[string]struct{}, len(catalogue))
	zones := make(map[string]map[string]struct{})
	for _, loc := range catalogue {
		all[loc.LocationID] = struct{}{}
		zone := loc.ZoneName()
		if zone == "" {
			continue
		}
		if zones[zone] == nil {
			zones[zone] = make(map[string]struct{})
		}
		zones[zone][loc.LocationID] = struct{}{}
	}

	if sameSet(set, all) {
		return Classification{Kind: ClassAllLocations, Label: LabelAllLocations}
	}

	names := make([]string, 0, len(zones))
	for name := range zones {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if sameSet(set, zones[name]) {
			return Classification{Kind: ClassZone, Label: name}
		}
	}

	return Classification{Kind: ClassMixed, Label: LabelMixed}
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) || len(a) == 0 {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
