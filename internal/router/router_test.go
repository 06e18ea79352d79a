package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PritStyling132/NEXUS-sub000/internal/config"
	"github.com/PritStyling132/NEXUS-sub000/internal/infra/realtime"
	"github.com/PritStyling132/NEXUS-sub000/internal/modules/handler"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth: config.AuthCfg{ServiceTokenPrefix: "sk_svc_"}}
	r, err := NewRouter(RouterDeps{
		Config:              cfg,
		Log:                 zap.NewNop(),
		LiveSessionHandler:  handler.NewLiveSessionHandler(nil),
		NotificationHandler: handler.NewNotificationHandler(nil),
		RealtimeHandler:     handler.NewRealtimeHandler(nil, realtime.NewStatusHub(zap.NewNop()), zap.NewNop()),
	})
	require.NoError(t, err)
	return r
}

func TestRouter_Health(t *testing.T) {
	w := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":200,"msg":"ok"}`, w.Body.String())
}

func TestRouter_APIRequiresAuth(t *testing.T) {
	r := newTestRouter(t)
	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/v1/live_sessions"},
		{http.MethodGet, "/api/v1/live_sessions/3f1b7a4e-6a2b-4a43-8a7e-0f7f6d1e2c11"},
		{http.MethodPost, "/api/v1/live_sessions/3f1b7a4e-6a2b-4a43-8a7e-0f7f6d1e2c11/start"},
		{http.MethodGet, "/api/v1/groups/3f1b7a4e-6a2b-4a43-8a7e-0f7f6d1e2c11/live_sessions"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/v1/notifications/read_all"},
		{http.MethodGet, "/api/v1/ws/live_sessions/3f1b7a4e-6a2b-4a43-8a7e-0f7f6d1e2c11"},
	}
	for _, rt := range routes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", rt.method, rt.path)
	}
}
