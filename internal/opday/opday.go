// Package opday 计算巡逻"运营日"：一天从本地时间 cutover 点（默认 06:00）开始，而不是零点。
// 本地时间始终用显式的固定 UTC 偏移换算，不依赖宿主机时区。
package opday

import (
	"fmt"
	"time"

	"github.com/jvlax-y/cekApar/internal/domain"
)

const (
	DefaultCutoverHour   = 6
	DefaultOffsetMinutes = 7 * 60 // WIB, UTC+07:00

	dayLayout = "2006-01-02"
)

// Window 运营日时间窗 [Start, End)，End-Start 恒为 24h
type Window struct {
	DayID string    `json:"day_id"`
	Start time.Time `json:"window_start"`
	End   time.Time `json:"window_end"`
}

// Contains 起点包含、终点不包含
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Zone 由分钟偏移构造固定时区
func Zone(offsetMinutes int) *time.Location {
	sign := "+"
	abs := offsetMinutes
	if abs < 0 {
		sign = "-"
		abs = -abs
	}
	return time.FixedZone(fmt.Sprintf("UTC%s%02d:%02d", sign, abs/60, abs%60), offsetMinutes*60)
}

// Resolve 把参考时刻换算成运营日及其时间窗
// 本地时间早于 cutoverHour 时属于前一个日历日；恰好等于 cutover 时属于新的一天
func Resolve(ref time.Time, cutoverHour, offsetMinutes int) Window {
	loc := Zone(offsetMinutes)
	local := ref.In(loc)

	y, m, d := local.Date()
	if local.Hour() < cutoverHour {
		d--
	}
	// time.Date 会规范化 d=0 等越界日期
	return windowAt(time.Date(y, m, d, cutoverHour, 0, 0, 0, loc))
}

// ForDay 根据运营日标识（YYYY-MM-DD）构造时间窗
func ForDay(dayID string, cutoverHour, offsetMinutes int) (Window, error) {
	loc := Zone(offsetMinutes)
	day, err := time.ParseInLocation(dayLayout, dayID, loc)
	if err != nil {
		return Window{}, fmt.Errorf("%w: %q", domain.ErrInvalidDay, dayID)
	}
	y, m, d := day.Date()
	return windowAt(time.Date(y, m, d, cutoverHour, 0, 0, 0, loc)), nil
}

func windowAt(start time.Time) Window {
	return Window{
		DayID: start.Format(dayLayout),
		Start: start,
		End:   start.Add(24 * time.Hour),
	}
}

// Calculator 绑定部署时区与 cutover，供守卫视图和主管视图共用
type Calculator struct {
	CutoverHour   int
	OffsetMinutes int
}

// NewCalculator 校验参数后创建
func NewCalculator(cutoverHour, offsetMinutes int) (*Calculator, error) {
	if cutoverHour < 0 || cutoverHour > 23 {
		return nil, fmt.Errorf("cutover hour out of range: %d", cutoverHour)
	}
	if offsetMinutes < -14*60 || offsetMinutes > 14*60 {
		return nil, fmt.Errorf("utc offset out of range: %d minutes", offsetMinutes)
	}
	return &Calculator{CutoverHour: cutoverHour, OffsetMinutes: offsetMinutes}, nil
}

// Resolve 见包级 Resolve
func (c *Calculator) Resolve(ref time.Time) Window {
	return Resolve(ref, c.CutoverHour, c.OffsetMinutes)
}

// ForDay 见包级 ForDay
func (c *Calculator) ForDay(dayID string) (Window, error) {
	return ForDay(dayID, c.CutoverHour, c.OffsetMinutes)
}

// Location 部署时区
func (c *Calculator) Location() *time.Location {
	return Zone(c.OffsetMinutes)
}
