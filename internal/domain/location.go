package domain

// Location 巡逻点位（对应 locations 表）
// 由点位管理模块维护，本服务只读
type Location struct {
	LocationID string  `json:"location_id"`
	Name       string  `json:"name"`
	Zone       *string `json:"zone,omitempty"` // 楼栋/区域标签，如 "Gedung Barat"，可为空
	QRPayload  string  `json:"qr_payload"`
}

// ZoneName 返回区域标签，未设置时返回空字符串
func (l Location) ZoneName() string {
	if l.Zone == nil {
		return ""
	}
	return *l.Zone
}

// GuardProfile 保安资料（只读，来自人员模块或身份服务）
type GuardProfile struct {
	GuardID   string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName 姓名拼接
func (p GuardProfile) DisplayName() string {
	switch {
	case p.FirstName != "" && p.LastName != "":
		return p.FirstName + " " + p.LastName
	case p.FirstName != "":
		return p.FirstName
	default:
		return p.LastName
	}
}
