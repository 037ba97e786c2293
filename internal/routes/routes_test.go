package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ayursutra-server/internal/config"
	"ayursutra-server/internal/metrics"
)

// TestRouteRegistration verifies the documented method and path of every
// endpoint resolves to a registered route. Unauthenticated requests may be
// rejected, but never with a 404.
func TestRouteRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	cfg := &config.Config{JWTSecret: "test-secret", JWTRefreshSecret: "test-refresh-secret"}
	SetupRoutes(router, nil, cfg, zap.NewNop(), metrics.NewCollector("routes_test"))

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/auth/register"},
		{http.MethodPost, "/api/auth/login"},
		{http.MethodPost, "/api/auth/refresh-token"},
		{http.MethodPost, "/api/auth/logout"},
		{http.MethodGet, "/api/auth/profile"},
		{http.MethodPut, "/api/auth/profile"},
		{http.MethodGet, "/api/users/practitioners"},
		{http.MethodGet, "/api/users/patients"},
		{http.MethodPost, "/api/users"},
		{http.MethodGet, "/api/appointments"},
		{http.MethodPost, "/api/appointments"},
		{http.MethodGet, "/api/appointments/appointment-1"},
		{http.MethodPost, "/api/appointments/appointment-1/confirm"},
		{http.MethodPost, "/api/appointments/appointment-1/complete"},
		{http.MethodPost, "/api/appointments/appointment-1/cancel"},
		{http.MethodGet, "/api/practitioner/schedule"},
		{http.MethodGet, "/api/therapy/programs"},
		{http.MethodPost, "/api/therapy/programs"},
		{http.MethodGet, "/api/therapy/programs/program-1"},
		{http.MethodPut, "/api/therapy/programs/program-1"},
		{http.MethodPatch, "/api/therapy/programs/program-1/status"},
		{http.MethodPost, "/api/therapy/programs/program-1/procedures/vamana/start"},
		{http.MethodPost, "/api/therapy/programs/program-1/procedures/vamana/finish"},
		{http.MethodPost, "/api/therapy/programs/program-1/procedures/vamana/cancel"},
		{http.MethodPost, "/api/therapy/programs/program-1/procedures/vamana/patient-feedback"},
		{http.MethodGet, "/api/notifications"},
		{http.MethodPost, "/api/notifications"},
		{http.MethodPatch, "/api/notifications/notification-1/read"},
		{http.MethodPatch, "/api/notifications/read-all"},
		{http.MethodGet, "/api/chats"},
		{http.MethodGet, "/api/chats/appointment/appointment-1"},
		{http.MethodPost, "/api/chats/chat-1/messages"},
		{http.MethodPut, "/api/chats/chat-1/read"},
		{http.MethodGet, "/health"},
		{http.MethodGet, "/metrics"},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code == http.StatusNotFound {
			t.Errorf("%s %s is not registered", tc.method, tc.path)
		}
	}
}
