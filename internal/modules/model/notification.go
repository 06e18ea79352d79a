package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const NotificationTypeLiveSession = "LIVE_SESSION"

type Notification struct {
	ID      uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID  uuid.UUID  `gorm:"type:uuid;not null;index:ix_notification_user_id_created_at,priority:1;index:ix_notification_user_id_is_read,priority:1" json:"user_id"`
	GroupID *uuid.UUID `gorm:"type:uuid;index" json:"group_id"`

	Type    string            `gorm:"type:text;not null" json:"type"`
	Title   string            `gorm:"type:text;not null" json:"title"`
	Message string            `gorm:"type:text;not null" json:"message"`
	Data    datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"data"`
	IsRead  bool              `gorm:"not null;default:false;index:ix_notification_user_id_is_read,priority:2" json:"is_read"`
	ReadAt  *time.Time        `gorm:"type:timestamptz" json:"read_at"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP;index:ix_notification_user_id_created_at,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Notification <-> User
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Notification <-> Group
	Group *Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE;" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
