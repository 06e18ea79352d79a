package model

import (
	"time"

	"github.com/google/uuid"
)

type LiveSessionStatus string

const (
	LiveSessionScheduled LiveSessionStatus = "SCHEDULED"
	LiveSessionLive      LiveSessionStatus = "LIVE"
	LiveSessionEnded     LiveSessionStatus = "ENDED"
	LiveSessionCancelled LiveSessionStatus = "CANCELLED"
)

func (s LiveSessionStatus) Valid() bool {
	switch s {
	case LiveSessionScheduled, LiveSessionLive, LiveSessionEnded, LiveSessionCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s LiveSessionStatus) Terminal() bool {
	return s == LiveSessionEnded || s == LiveSessionCancelled
}

type LiveSession struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CourseID    uuid.UUID         `gorm:"type:uuid;not null;index:ix_live_session_course_id_created_at,priority:1" json:"course_id"`
	GroupID     uuid.UUID         `gorm:"type:uuid;not null;index:ix_live_session_group_id_created_at,priority:1" json:"group_id"`
	CreatedBy   uuid.UUID         `gorm:"type:uuid;not null;index" json:"created_by"`
	Title       string            `gorm:"type:text;not null" json:"title"`
	Description *string           `gorm:"type:text" json:"description"`
	Status      LiveSessionStatus `gorm:"type:varchar(16);not null;default:'SCHEDULED';check:status IN ('SCHEDULED','LIVE','ENDED','CANCELLED');index" json:"status"`
	IsInstant   bool              `gorm:"not null;default:false" json:"is_instant"`
	ScheduledAt *time.Time        `gorm:"type:timestamptz" json:"scheduled_at"`
	StartedAt   *time.Time        `gorm:"type:timestamptz" json:"started_at"`
	EndedAt     *time.Time        `gorm:"type:timestamptz" json:"ended_at"`
	RoomURL     *string           `gorm:"type:text;uniqueIndex" json:"room_url"`

	CreatedAt time.Time `gorm:"autoCreateTime;not null;default:CURRENT_TIMESTAMP;index:ix_live_session_course_id_created_at,priority:2;index:ix_live_session_group_id_created_at,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// LiveSession <-> Course
	Course *Course `gorm:"foreignKey:CourseID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// LiveSession <-> Group
	Group *Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// LiveSession <-> User (creator)
	Creator *User `gorm:"foreignKey:CreatedBy;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (LiveSession) TableName() string { return "live_sessions" }

// LiveSessionOp names a lifecycle operation on an existing session.
type LiveSessionOp string

const (
	OpCreate LiveSessionOp = "create"
	OpStart  LiveSessionOp = "start"
	OpEnd    LiveSessionOp = "end"
	OpCancel LiveSessionOp = "cancel"
	OpDelete LiveSessionOp = "delete"
)

// Transition is one allowed edge of the lifecycle state machine.
// To is empty for OpDelete, which removes the row.
type Transition struct {
	From LiveSessionStatus
	Op   LiveSessionOp
	To   LiveSessionStatus
}

var transitionsTable = []Transition{
	{From: LiveSessionScheduled, Op: OpStart, To: LiveSessionLive},

	{From: LiveSessionLive, Op: OpEnd, To: LiveSessionEnded},

	{From: LiveSessionScheduled, Op: OpCancel, To: LiveSessionCancelled},
	// Cancelling a session that is already live is allowed.
	{From: LiveSessionLive, Op: OpCancel, To: LiveSessionCancelled},

	{From: LiveSessionEnded, Op: OpDelete},
	{From: LiveSessionCancelled, Op: OpDelete},
}

// TransitionFor returns the allowed transition for op from the given status.
func TransitionFor(from LiveSessionStatus, op LiveSessionOp) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Op == op {
			return tr, true
		}
	}
	return Transition{}, false
}

// SourceStatuses lists every status op may be applied to.
func SourceStatuses(op LiveSessionOp) []LiveSessionStatus {
	out := make([]LiveSessionStatus, 0, 2)
	for _, tr := range transitionsTable {
		if tr.Op == op {
			out = append(out, tr.From)
		}
	}
	return out
}

// CanJoinResult is the payload of a join check.
type CanJoinResult struct {
	CanJoin bool         `json:"can_join"`
	IsOwner bool         `json:"is_owner"`
	Session *LiveSession `json:"session"`
}

// LiveSessionEvent is emitted after every successful lifecycle operation.
type LiveSessionEvent struct {
	Event         string            `json:"event"`
	Op            LiveSessionOp     `json:"op"`
	LiveSessionID uuid.UUID         `json:"live_session_id"`
	GroupID       uuid.UUID         `json:"group_id"`
	CourseID      uuid.UUID         `json:"course_id"`
	ActorID       uuid.UUID         `json:"actor_id"`
	Status        LiveSessionStatus `json:"status,omitempty"`
	RoomURL       string            `json:"room_url,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

func NewLiveSessionEvent(op LiveSessionOp, s *LiveSession, actorID uuid.UUID, at time.Time) LiveSessionEvent {
	ev := LiveSessionEvent{
		Event:         "live_session." + string(op),
		Op:            op,
		LiveSessionID: s.ID,
		GroupID:       s.GroupID,
		CourseID:      s.CourseID,
		ActorID:       actorID,
		Status:        s.Status,
		OccurredAt:    at,
	}
	if op == OpDelete {
		ev.Status = ""
	}
	if s.RoomURL != nil {
		ev.RoomURL = *s.RoomURL
	}
	return ev
}

// Closes reports whether subscribers of the session should be disconnected.
func (e LiveSessionEvent) Closes() bool {
	return e.Op == OpEnd || e.Op == OpCancel || e.Op == OpDelete
}
