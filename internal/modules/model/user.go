package model

import (
	"time"

	"github.com/google/uuid"
)

// User is owned by the account service; this service only reads it.
type User struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email *string   `gorm:"type:text;uniqueIndex" json:"email"`
	Name  string    `gorm:"type:text;not null;default:''" json:"name"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// User <-> GroupMember
	Memberships []GroupMember `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// User <-> Notification
	Notifications []Notification `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (User) TableName() string { return "users" }

// DisplayName falls back to the email local part when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	if u.Email != nil {
		e := *u.Email
		for i := 0; i < len(e); i++ {
			if e[i] == '@' {
				return e[:i]
			}
		}
		return e
	}
	return ""
}
