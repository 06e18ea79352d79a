package model

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Group <-> User (owner)
	Owner *User `gorm:"foreignKey:OwnerUserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Group <-> GroupMember
	Members []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// Group <-> Course
	Courses []Course `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Group) TableName() string { return "groups" }

type GroupMember struct {
	GroupID uuid.UUID `gorm:"type:uuid;primaryKey" json:"group_id"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"user_id"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (GroupMember) TableName() string { return "group_members" }

type Course struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	Title   string    `gorm:"type:text;not null" json:"title"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }
