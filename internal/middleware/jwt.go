package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/service"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/logger"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// contextAuthErrorKey holds the reason a presented token was rejected.
	contextAuthErrorKey = "authError"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// OptionalJWT attaches claims when a valid bearer token is present. Requests
// with a missing or rejected token continue as anonymous; rejections are
// recorded as security events and remembered for RequireAuth.
func OptionalJWT(validator TokenValidator, security service.SecurityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			reject(c, security, models.SecurityEventInvalidToken, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"), "")
			c.Next()
			return
		}

		token := strings.TrimSpace(parts[1])
		claims, err := validator.ValidateToken(token)
		if err != nil {
			event := models.SecurityEventInvalidToken
			if service.IsTokenExpired(err) {
				event = models.SecurityEventExpiredToken
			}
			reject(c, security, event, err, token)
			c.Next()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless OptionalJWT attached a principal.
func RequireAuth(security service.SecurityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if Principal(c).Authenticated {
			c.Next()
			return
		}
		if value, ok := c.Get(contextAuthErrorKey); ok {
			if err, ok := value.(error); ok {
				response.AbortWithError(c, err)
				return
			}
		}
		if security != nil {
			security.Record(c.Request.Context(), logger.SecurityEvent{
				Event:    models.SecurityEventMissingToken,
				IP:       c.ClientIP(),
				Endpoint: endpoint(c),
			})
		}
		response.AbortWithError(c, appErrors.ErrUnauthorized)
	}
}

// Principal returns the caller attached to the request, or Anonymous.
func Principal(c *gin.Context) models.Principal {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Anonymous
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return models.Anonymous
	}
	return models.PrincipalFromClaims(claims)
}

func reject(c *gin.Context, security service.SecurityRecorder, event string, err error, token string) {
	c.Set(contextAuthErrorKey, err)
	if security == nil {
		return
	}
	details := map[string]string{}
	if fp := logger.TokenFingerprint(token); fp != "" {
		details["token_fp"] = fp
	}
	security.Record(c.Request.Context(), logger.SecurityEvent{
		Event:    event,
		IP:       c.ClientIP(),
		Endpoint: endpoint(c),
		Details:  details,
	})
}

func endpoint(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}
