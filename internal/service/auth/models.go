package auth

import (
	"time"
)

// Role: 계정 권한
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// userModel: card_users 테이블 매핑 (password_hash는 절대 API로 노출하지 않음)
type userModel struct {
	ID           string `gorm:"primaryKey;column:id"`
	Username     string `gorm:"uniqueIndex;column:username"`
	PasswordHash string `gorm:"column:password_hash"`
	Role         string `gorm:"column:role"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "card_users" }

// User: API 응답용 유저 정보
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin 은 관리자 권한 여부다.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func toUser(m *userModel) *User {
	if m == nil {
		return nil
	}
	return &User{
		ID:        m.ID,
		Username:  m.Username,
		Role:      Role(m.Role),
		CreatedAt: m.CreatedAt,
	}
}
