package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashVG/techprep-sub000/internal/models"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/logger"
	"github.com/YashVG/techprep-sub000/pkg/ratelimit"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []logger.SecurityEvent
}

func (r *recordedEvents) Record(_ context.Context, event logger.SecurityEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordedEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

type stubValidator struct {
	tokens map[string]*models.JWTClaims
}

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if token == "expired" {
		return nil, appErrors.Wrap(jwt.ErrTokenExpired, appErrors.KindAuth, http.StatusUnauthorized, "token expired")
	}
	if claims, ok := s.tokens[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newAuthRouter(events *recordedEvents) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{tokens: map[string]*models.JWTClaims{
		"good": {UserID: 7, Username: "alice"},
	}}
	r := gin.New()
	r.Use(OptionalJWT(validator, events))
	r.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": Principal(c).Authenticated})
	})
	r.GET("/closed", RequireAuth(events), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": Principal(c).UserID})
	})
	return r
}

func doRequest(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestOptionalJWTAttachesPrincipal(t *testing.T) {
	events := &recordedEvents{}
	r := newAuthRouter(events)

	rec := doRequest(r, http.MethodGet, "/closed", "good")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7}`, rec.Body.String())
	assert.Empty(t, events.names())
}

func TestOptionalJWTFallsBackToAnonymous(t *testing.T) {
	events := &recordedEvents{}
	r := newAuthRouter(events)

	rec := doRequest(r, http.MethodGet, "/open", "garbage")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())
	assert.Equal(t, []string{models.SecurityEventInvalidToken}, events.names())
}

func TestRequireAuthMissingToken(t *testing.T) {
	events := &recordedEvents{}
	r := newAuthRouter(events)

	rec := doRequest(r, http.MethodGet, "/closed", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication required", errorMessage(t, rec))
	assert.Equal(t, []string{models.SecurityEventMissingToken}, events.names())
}

func TestRequireAuthReportsExpiredToken(t *testing.T) {
	events := &recordedEvents{}
	r := newAuthRouter(events)

	rec := doRequest(r, http.MethodGet, "/closed", "expired")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", errorMessage(t, rec))
	assert.Equal(t, []string{models.SecurityEventExpiredToken}, events.names())
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	events := &recordedEvents{}
	r := newAuthRouter(events)

	req := httptest.NewRequest(http.MethodGet, "/closed", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid authorization header", errorMessage(t, rec))
}

func TestPrincipalWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, models.Anonymous, Principal(c))

	c.Set(ContextUserKey, "not-claims")
	assert.Equal(t, models.Anonymous, Principal(c))
}

func TestRateLimiterRejectsAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2024, 1, 1, 10, 0, 30, 0, time.UTC)
	clock := func() time.Time { return now }
	limiter := ratelimit.New(ratelimit.NewMemoryStore(clock), ratelimit.WithClock(clock))
	events := &recordedEvents{}
	rl := NewRateLimiter(limiter, events, nil, nil, true)

	r := gin.New()
	r.POST("/login", rl.Limit("login", ratelimit.Rule{Limit: 2, Window: time.Minute}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		rec := doRequest(r, http.MethodPost, "/login", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
	}

	rec := doRequest(r, http.MethodPost, "/login", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", errorMessage(t, rec))
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, strconv.FormatInt(time.Date(2024, 1, 1, 10, 1, 0, 0, time.UTC).Unix(), 10), rec.Header().Get("X-RateLimit-Reset"))
	assert.Equal(t, []string{models.SecurityEventRateLimitExceeded}, events.names())

	now = now.Add(time.Minute)
	rec = doRequest(r, http.MethodPost, "/login", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiterDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(nil, nil, nil, nil, true)

	r := gin.New()
	r.GET("/", rl.Limit("default", ratelimit.Rule{Limit: 1, Window: time.Minute}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodGet, "/", "").Code)
	}
}

type failingStore struct{}

func (failingStore) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, assert.AnError
}

func TestRateLimiterFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(ratelimit.New(failingStore{}), nil, nil, nil, true)

	r := gin.New()
	r.GET("/", rl.Limit("default", ratelimit.Rule{Limit: 1, Window: time.Minute}), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusNoContent, doRequest(r, http.MethodGet, "/", "").Code)
}

func TestSecurityHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(false))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := doRequest(r, http.MethodGet, "/", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", rec.Header().Get("X-XSS-Protection"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	r = gin.New()
	r.Use(SecurityHeaders(true))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	rec = doRequest(r, http.MethodGet, "/", "")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestForbiddenAuditRecordsOnlyForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	events := &recordedEvents{}
	r := gin.New()
	r.Use(OptionalJWT(stubValidator{tokens: map[string]*models.JWTClaims{"good": {UserID: 7}}}, nil))
	r.Use(ForbiddenAudit(events))
	r.GET("/denied", func(c *gin.Context) { c.Status(http.StatusForbidden) })
	r.GET("/fine", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, http.MethodGet, "/fine", "good")
	doRequest(r, http.MethodGet, "/denied", "good")

	require.Len(t, events.events, 1)
	assert.Equal(t, models.SecurityEventForbiddenAttempt, events.events[0].Event)
	require.NotNil(t, events.events[0].UserID)
	assert.Equal(t, int64(7), *events.events[0].UserID)
	assert.Equal(t, "GET /denied", events.events[0].Endpoint)
}

func TestRecoveryHidesPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(nil))
	r.GET("/", func(*gin.Context) { panic("boom") })

	rec := doRequest(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", errorMessage(t, rec))
}
