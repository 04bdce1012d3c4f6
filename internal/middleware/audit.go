package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/models"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/logger"
)

// ForbiddenAudit records a security event after every request answered with 403.
func ForbiddenAudit(security service.SecurityRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if security == nil || c.Writer.Status() != http.StatusForbidden {
			return
		}

		event := logger.SecurityEvent{
			Event:    models.SecurityEventForbiddenAttempt,
			IP:       c.ClientIP(),
			Endpoint: endpoint(c),
		}
		if p := Principal(c); p.Authenticated {
			id := p.UserID
			event.UserID = &id
		}
		security.Record(c.Request.Context(), event)
	}
}
