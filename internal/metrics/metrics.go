package metrics

import "math"

// Checked 单条完成状态的最小视图
type Checked interface {
	AreaChecked() bool
	AparChecked() bool
}

// Summary 完成度统计
type Summary struct {
	Total                 int `json:"total"`
	CompletedBoth         int `json:"completed_both"`
	AreaChecked           int `json:"area_checked"`
	AparChecked           int `json:"apar_checked"`
	CompletionRatePercent int `json:"completion_rate_percent"`
}

// Summarize 统计区域与灭火器都已完成的数量；total 为 0 时完成率为 0
func Summarize[T Checked](statuses []T) Summary {
	s := Summary{Total: len(statuses)}
	for _, st := range statuses {
		area, apar := st.AreaChecked(), st.AparChecked()
		if area {
			s.AreaChecked++
		}
		if apar {
			s.AparChecked++
		}
		if area && apar {
			s.CompletedBoth++
		}
	}
	s.CompletionRatePercent = Percent(s.CompletedBoth, s.Total)
	return s
}

// Percent round(part/total*100)，total 为 0 时返回 0
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// RosterSummary 主管看板顶部统计
type RosterSummary struct {
	TotalPersonnel   int `json:"total_personnel"`
	TotalAssignments int `json:"total_assignments"`
	Summary
}

// Merge 合并多名保安的统计
func Merge(parts ...Summary) Summary {
	var s Summary
	for _, p := range parts {
		s.Total += p.Total
		s.CompletedBoth += p.CompletedBoth
		s.AreaChecked += p.AreaChecked
		s.AparChecked += p.AparChecked
	}
	s.CompletionRatePercent = Percent(s.CompletedBoth, s.Total)
	return s
}

// SummarizeRoster 主管看板统计；每个 part 对应一名保安
func SummarizeRoster(parts ...Summary) RosterSummary {
	merged := Merge(parts...)
	return RosterSummary{
		TotalPersonnel:   len(parts),
		TotalAssignments: merged.Total,
		Summary:          merged,
	}
}
