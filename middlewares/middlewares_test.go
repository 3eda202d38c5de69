package middlewares

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

var testSecret = []byte("test-secret")

func setupRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	utils.InitLogger("error")
	r := gin.New()
	r.Use(handlers...)
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subject": c.GetString(ContextSubject), "role": c.GetString(ContextRole)})
	})
	return r
}

func doGet(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := setupRouter(AuthMiddleware(testSecret, true), RoleCheck(utils.RoleAdmin))

	w := doGet(r, "/ok", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/ok", map[string]string{"Authorization": "Token abc"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doGet(r, "/ok", map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	staff, err := utils.GenerateToken(testSecret, "joana", "staff", time.Hour)
	require.NoError(t, err)
	w = doGet(r, "/ok", map[string]string{"Authorization": "Bearer " + staff})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin, err := utils.GenerateToken(testSecret, "gerente", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w = doGet(r, "/ok", map[string]string{"Authorization": "Bearer " + admin})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "gerente", body["subject"])
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	r := setupRouter(AuthMiddleware(nil, false), RoleCheck(utils.RoleAdmin))
	w := doGet(r, "/ok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestWebSocketAuthMiddleware(t *testing.T) {
	r := setupRouter(WebSocketAuthMiddleware(testSecret, true))

	w := doGet(r, "/ok", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := utils.GenerateToken(testSecret, "gerente", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w = doGet(r, "/ok?token="+token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := setupRouter(RequestID(), LoggerMiddleware())

	w := doGet(r, "/ok", nil)
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	w = doGet(r, "/ok", map[string]string{RequestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRateLimiterPerIP(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	r := setupRouter(rl.RateLimit())

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.RemoteAddr = ip + ":4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
}

func TestCORSAndSecurityHeaders(t *testing.T) {
	r := setupRouter(CORSMiddlewares("https://reservas.example.com"), SecurityHeaders(true))

	req := httptest.NewRequest(http.MethodOptions, "/ok", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://reservas.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = doGet(r, "/ok", nil)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, w.Header().Get("Strict-Transport-Security"))
}
