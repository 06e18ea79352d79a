package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/model"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/serializer"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
)

type LiveSessionHandler struct {
	svc service.LiveSessionService
}

func NewLiveSessionHandler(s service.LiveSessionService) *LiveSessionHandler {
	return &LiveSessionHandler{svc: s}
}

type CreateLiveSessionReq struct {
	CourseID    uuid.UUID  `json:"course_id" binding:"required"`
	GroupID     uuid.UUID  `json:"group_id" binding:"required"`
	Title       string     `json:"title" binding:"required,notblank,max=200" example:"Office hours"`
	Description *string    `json:"description" binding:"omitempty,max=5000"`
	ScheduledAt *time.Time `json:"scheduled_at" binding:"required_unless=IsInstant true" example:"2026-11-02T17:00:00Z"`
	IsInstant   bool       `json:"is_instant" example:"false"`
}

// CreateLiveSession godoc
//
//	@Summary		Create live session
//	@Description	Create an instant (LIVE) or scheduled live session for a course. Only the group owner may create sessions. Group members are notified in the background.
//	@Tags			live_session
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateLiveSessionReq	true	"CreateLiveSession payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.LiveSession}
//	@Router			/live_sessions [post]
func (h *LiveSessionHandler) CreateLiveSession(c *gin.Context) {
	req := CreateLiveSessionReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.CreateLiveSessionInput{
		CourseID:    req.CourseID,
		GroupID:     req.GroupID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsInstant:   req.IsInstant,
	}
	if !req.IsInstant {
		in.ScheduledAt = req.ScheduledAt
	}

	ls, err := h.svc.Create(c.Request.Context(), actorID(c), in)
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(ls))
}

// GetLiveSession godoc
//
//	@Summary		Get live session
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.LiveSession}
//	@Router			/live_sessions/{live_session_id} [get]
func (h *LiveSessionHandler) GetLiveSession(c *gin.Context) {
	id, err := pathUUID(c, "live_session_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ls, err := h.svc.GetByID(c.Request.Context(), actorID(c), id)
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(ls))
}

type ListLiveSessionsReq struct {
	Limit    *int   `form:"limit" json:"limit" binding:"omitempty,min=1,max=200" example:"20"`
	Cursor   string `form:"cursor" json:"cursor"`
	Status   string `form:"status" json:"status" binding:"omitempty,oneof=SCHEDULED LIVE ENDED CANCELLED" example:"LIVE"`
	TimeDesc bool   `form:"time_desc,default=false" json:"time_desc" example:"false"`
}

func (r ListLiveSessionsReq) input() service.ListLiveSessionsInput {
	return service.ListLiveSessionsInput{
		Status:   model.LiveSessionStatus(r.Status),
		Limit:    pageLimit(r.Limit),
		Cursor:   r.Cursor,
		TimeDesc: r.TimeDesc,
	}
}

// ListGroupLiveSessions godoc
//
//	@Summary		List live sessions of a group
//	@Description	Cursor-paged list of the group's live sessions. Visible to the owner and members.
//	@Tags			live_session
//	@Produce		json
//	@Param			group_id	path	string	true	"Group ID"	format(uuid)
//	@Param			limit		query	integer	false	"Page size, max 200 (default 20)"
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Param			status		query	string	false	"Only sessions in this status"
//	@Param			time_desc	query	boolean	false	"Newest first"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListLiveSessionsOutput}
//	@Router			/groups/{group_id}/live_sessions [get]
func (h *LiveSessionHandler) ListGroupLiveSessions(c *gin.Context) {
	groupID, err := pathUUID(c, "group_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := ListLiveSessionsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.ListByGroup(c.Request.Context(), actorID(c), groupID, req.input())
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(out))
}

// ListCourseLiveSessions godoc
//
//	@Summary		List live sessions of a course
//	@Tags			live_session
//	@Produce		json
//	@Param			course_id	path	string	true	"Course ID"	format(uuid)
//	@Param			limit		query	integer	false	"Page size, max 200 (default 20)"
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Param			status		query	string	false	"Only sessions in this status"
//	@Param			time_desc	query	boolean	false	"Newest first"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListLiveSessionsOutput}
//	@Router			/courses/{course_id}/live_sessions [get]
func (h *LiveSessionHandler) ListCourseLiveSessions(c *gin.Context) {
	courseID, err := pathUUID(c, "course_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req := ListLiveSessionsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.ListByCourse(c.Request.Context(), actorID(c), courseID, req.input())
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(out))
}

func (h *LiveSessionHandler) transition(c *gin.Context, op func(ctx *gin.Context, actor, id uuid.UUID) (*model.LiveSession, error)) {
	id, err := pathUUID(c, "live_session_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ls, err := op(c, actorID(c), id)
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(ls))
}

// StartLiveSession godoc
//
//	@Summary		Start live session
//	@Description	SCHEDULED to LIVE. Owner only.
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.LiveSession}
//	@Router			/live_sessions/{live_session_id}/start [post]
func (h *LiveSessionHandler) StartLiveSession(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor, id uuid.UUID) (*model.LiveSession, error) {
		return h.svc.Start(c.Request.Context(), actor, id)
	})
}

// EndLiveSession godoc
//
//	@Summary		End live session
//	@Description	LIVE to ENDED. Owner only.
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.LiveSession}
//	@Router			/live_sessions/{live_session_id}/end [post]
func (h *LiveSessionHandler) EndLiveSession(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor, id uuid.UUID) (*model.LiveSession, error) {
		return h.svc.End(c.Request.Context(), actor, id)
	})
}

// CancelLiveSession godoc
//
//	@Summary		Cancel live session
//	@Description	SCHEDULED or LIVE to CANCELLED. Owner only.
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.LiveSession}
//	@Router			/live_sessions/{live_session_id}/cancel [post]
func (h *LiveSessionHandler) CancelLiveSession(c *gin.Context) {
	h.transition(c, func(c *gin.Context, actor, id uuid.UUID) (*model.LiveSession, error) {
		return h.svc.Cancel(c.Request.Context(), actor, id)
	})
}

// DeleteLiveSession godoc
//
//	@Summary		Delete live session
//	@Description	Remove an ENDED or CANCELLED session. Owner only.
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/live_sessions/{live_session_id} [delete]
func (h *LiveSessionHandler) DeleteLiveSession(c *gin.Context) {
	id, err := pathUUID(c, "live_session_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), actorID(c), id); err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(nil))
}

// CanJoinLiveSession godoc
//
//	@Summary		Check join permission
//	@Description	can_join is true for the group owner and current members. The session is only returned when joining is allowed.
//	@Tags			live_session
//	@Produce		json
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.CanJoinResult}
//	@Router			/live_sessions/{live_session_id}/join [get]
func (h *LiveSessionHandler) CanJoinLiveSession(c *gin.Context) {
	id, err := pathUUID(c, "live_session_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	res, err := h.svc.CanJoin(c.Request.Context(), actorID(c), id)
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(res))
}
