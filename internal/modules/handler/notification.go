package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PritStyling132/NEXUS-sub000/internal/modules/serializer"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: s}
}

type ListNotificationsReq struct {
	Limit      *int   `form:"limit" json:"limit" binding:"omitempty,min=1,max=200" example:"20"`
	Cursor     string `form:"cursor" json:"cursor"`
	UnreadOnly bool   `form:"unread_only,default=false" json:"unread_only" example:"false"`
}

// ListNotifications godoc
//
//	@Summary		List notifications
//	@Description	The caller's inbox, newest first.
//	@Tags			notification
//	@Produce		json
//	@Param			limit		query	integer	false	"Page size, max 200 (default 20)"
//	@Param			cursor		query	string	false	"Cursor from the previous page"
//	@Param			unread_only	query	boolean	false	"Only unread notifications"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListNotificationsOutput}
//	@Router			/notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	req := ListNotificationsReq{}
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.svc.List(c.Request.Context(), actorID(c), service.ListNotificationsInput{
		Limit:      pageLimit(req.Limit),
		Cursor:     req.Cursor,
		UnreadOnly: req.UnreadOnly,
	})
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(out))
}

// UnreadCount godoc
//
//	@Summary	Count unread notifications
//	@Tags		notification
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=map[string]int64}
//	@Router		/notifications/unread_count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), actorID(c))
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(gin.H{"unread": n}))
}

// MarkRead godoc
//
//	@Summary	Mark a notification read
//	@Tags		notification
//	@Produce	json
//	@Param		notification_id	path	string	true	"Notification ID"	format(uuid)
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=model.Notification}
//	@Router		/notifications/{notification_id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := pathUUID(c, "notification_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	n, err := h.svc.MarkRead(c.Request.Context(), actorID(c), id)
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(n))
}

// MarkAllRead godoc
//
//	@Summary	Mark every notification read
//	@Tags		notification
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	serializer.Response{data=map[string]int64}
//	@Router		/notifications/read_all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), actorID(c))
	if err != nil {
		serializer.Abort(c, err)
		return
	}

	c.JSON(http.StatusOK, serializer.OK(gin.H{"updated": n}))
}
