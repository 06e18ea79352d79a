package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/middleware"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/handler"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/serializer"
	"github.com/PritStyling132/NEXUS-sub000/internal/telemetry"
)

type RouterDeps struct {
	Config              *config.Config
	Log                 *zap.Logger
	UserResolver        middleware.UserResolver
	LiveSessionHandler  *handler.LiveSessionHandler
	NotificationHandler *handler.NotificationHandler
	RealtimeHandler     *handler.RealtimeHandler
}

func NewRouter(d RouterDeps) (*gin.Engine, error) {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Config.Telemetry.Enabled && d.Config.Telemetry.OtlpEndpoint != "" {
		r.Use(telemetry.GinMiddleware(d.Config.App.Name))
		// Add trace ID to response header
		r.Use(telemetry.TraceIDMiddleware())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Code: http.StatusOK, Msg: "ok"}) })

	v1 := r.Group("/api/v1")
	{
		v1.Use(middleware.UserAuth(d.Config, d.UserResolver, d.Log))

		liveSessions := v1.Group("/live_sessions")
		{
			liveSessions.POST("", d.LiveSessionHandler.CreateLiveSession)
			liveSessions.GET("/:live_session_id", d.LiveSessionHandler.GetLiveSession)
			liveSessions.DELETE("/:live_session_id", d.LiveSessionHandler.DeleteLiveSession)

			liveSessions.POST("/:live_session_id/start", d.LiveSessionHandler.StartLiveSession)
			liveSessions.POST("/:live_session_id/end", d.LiveSessionHandler.EndLiveSession)
			liveSessions.POST("/:live_session_id/cancel", d.LiveSessionHandler.CancelLiveSession)

			liveSessions.GET("/:live_session_id/join", d.LiveSessionHandler.CanJoinLiveSession)
		}

		v1.GET("/groups/:group_id/live_sessions", d.LiveSessionHandler.ListGroupLiveSessions)
		v1.GET("/courses/:course_id/live_sessions", d.LiveSessionHandler.ListCourseLiveSessions)

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", d.NotificationHandler.ListNotifications)
			notifications.GET("/unread_count", d.NotificationHandler.UnreadCount)
			notifications.POST("/read_all", d.NotificationHandler.MarkAllRead)
			notifications.POST("/:notification_id/read", d.NotificationHandler.MarkRead)
		}

		v1.GET("/ws/live_sessions/:live_session_id", d.RealtimeHandler.StatusFeed)
	}
	return r, nil
}
