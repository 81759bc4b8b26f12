package model

// User 用户表，对应 users
// email 入库前统一小写，唯一索引建在 LOWER(email) 上
type User struct {
	ID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null"                      json:"role"` // teacher | student
	Timestamps
}

// TableName 指定表名
func (User) TableName() string { return "users" }
