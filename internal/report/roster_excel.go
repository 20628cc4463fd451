package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jvlax-y/cekApar/internal/projector"
)

const (
	rosterSheet  = "Roster"
	timeLayout   = "2006-01-02 15:04:05"
	markChecked  = "Sudah"
	markPending  = "Belum"
	summaryLabel = "Completion Rate"
)

// RosterHeader 导出表头（每个排班一行）
var RosterHeader = []string{
	"Guard",
	"Classification",
	"Location",
	"Zone",
	"Area Check",
	"Area Checked At",
	"APAR Check",
	"APAR Checked At",
	"APAR Code",
	"APAR Condition",
	"Evidence URL",
}

var rosterColumnWidths = []float64{
	24, // Guard
	20, // Classification
	24, // Location
	18, // Zone
	12, // Area Check
	20, // Area Checked At
	12, // APAR Check
	20, // APAR Checked At
	14, // APAR Code
	18, // APAR Condition
	40, // Evidence URL
}

// ExportRoster 生成主管看板的 Excel 导出，时间按运营日所在时区显示
func ExportRoster(roster *projector.Roster) ([]byte, error) {
	if roster == nil {
		return nil, fmt.Errorf("roster is nil")
	}
	loc := roster.Window.Start.Location()

	f := excelize.NewFile()

	index, err := f.NewSheet(rosterSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range RosterHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(rosterSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(rosterSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	for i, width := range rosterColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(rosterSheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	row := 2
	for _, g := range roster.Guards {
		for _, st := range g.Statuses {
			zone := ""
			if st.Location != nil {
				zone = st.Location.ZoneName()
			}
			evidence := ""
			if st.EvidenceURL != nil {
				evidence = *st.EvidenceURL
			}
			values := []interface{}{
				g.GuardName,
				g.LocationClassification.Label,
				st.LocationName(),
				zone,
				mark(st.IsAreaChecked),
				formatTime(st.AreaCheckedAt, loc),
				mark(st.IsAparChecked),
				formatTime(st.AparCheckedAt, loc),
				st.AparCode,
				string(st.AparCondition),
				evidence,
			}
			if err := f.SetSheetRow(rosterSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
			row++
		}
	}

	// 汇总行
	row++
	summary := []interface{}{
		summaryLabel,
		fmt.Sprintf("%d%%", roster.Summary.CompletionRatePercent),
		fmt.Sprintf("%d/%d", roster.Summary.CompletedBoth, roster.Summary.Total),
		roster.DayID,
	}
	if err := f.SetSheetRow(rosterSheet, fmt.Sprintf("A%d", row), &summary); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write summary row: %w", err)
	}

	if err := f.SetPanes(rosterSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName 导出文件名
func FileName(dayID string) string {
	return "patrol-roster-" + dayID + ".xlsx"
}

func mark(checked bool) string {
	if checked {
		return markChecked
	}
	return markPending
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	if loc != nil {
		return t.In(loc).Format(timeLayout)
	}
	return t.Format(timeLayout)
}
