package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/infra/realtime"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/serializer"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/service"
)

type RealtimeHandler struct {
	svc service.LiveSessionService
	hub *realtime.StatusHub
	log *zap.Logger
}

func NewRealtimeHandler(s service.LiveSessionService, hub *realtime.StatusHub, log *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{svc: s, hub: hub, log: log}
}

// StatusFeed godoc
//
//	@Summary		Live session status feed
//	@Description	Upgrades to a websocket that receives one JSON event per lifecycle change. The server closes the socket when the session ends, is cancelled or deleted.
//	@Tags			live_session
//	@Param			live_session_id	path	string	true	"Live session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		101
//	@Router			/ws/live_sessions/{live_session_id} [get]
func (h *RealtimeHandler) StatusFeed(c *gin.Context) {
	id, err := pathUUID(c, "live_session_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	actor := actorID(c)

	res, err := h.svc.CanJoin(c.Request.Context(), actor, id)
	if err != nil {
		serializer.Abort(c, err)
		return
	}
	if !res.CanJoin {
		c.JSON(http.StatusForbidden, serializer.Err(http.StatusForbidden, "not a member of this group", nil))
		return
	}
	if res.Session.Status.Terminal() {
		c.JSON(http.StatusBadRequest, serializer.Err(http.StatusBadRequest, "live session is over", nil))
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.log.Debug("status feed upgrade failed", zap.Error(err))
		return
	}

	peer, cleanup := h.hub.Register(id, actor, conn)
	h.hub.Serve(peer, cleanup)
}
