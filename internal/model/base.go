package model

import "time"

// 角色
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// ValidRole 是否为合法角色
func ValidRole(role string) bool {
	return role == RoleTeacher || role == RoleStudent
}

// Timestamps 通用时间戳字段（所有业务模型嵌入）
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updatedAt"`
}
