package domain

// ScheduleAssignment 排班：某保安在某个运营日需要巡检某点位（对应 schedules 表）
// 唯一约束：(guard_id, location_id, schedule_date)
type ScheduleAssignment struct {
	GuardID    string `json:"guard_id"`
	LocationID string `json:"location_id"`
	DayID      string `json:"day_id"` // 运营日，YYYY-MM-DD
}

// Key 去重键
func (a ScheduleAssignment) Key() string {
	return a.GuardID + "|" + a.LocationID + "|" + a.DayID
}
