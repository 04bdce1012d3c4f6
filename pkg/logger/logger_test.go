package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareLogsServerErrorCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(GinMiddleware(zap.New(core)))
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("bcrypt: password length exceeds 72 bytes"))
		c.Status(http.StatusInternalServerError)
	})
	r.GET("/bad", func(c *gin.Context) {
		_ = c.Error(errors.New("missing field"))
		c.Status(http.StatusBadRequest)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	require.Equal(t, 2, logs.Len())
	failed := logs.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, failed.Level)
	assert.Equal(t, "http_request", failed.Message)
	assert.Contains(t, failed.ContextMap()["errors"], "password length exceeds 72 bytes")

	rejected := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, rejected.Level)
	assert.NotContains(t, rejected.ContextMap(), "errors")
}
