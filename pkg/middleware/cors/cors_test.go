package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newRouter(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/posts", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestAllowedOriginIsEchoed(t *testing.T) {
	r := newRouter([]string{"http://localhost:3000/"})

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownOriginGetsNoHeaders(t *testing.T) {
	r := newRouter([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	req.Header.Set("Origin", "http://evil.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWildcardIsIgnored(t *testing.T) {
	r := newRouter([]string{"*"})

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://anything.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflightForAllowedOrigin(t *testing.T) {
	r := newRouter([]string{"http://localhost:3001"})

	req := httptest.NewRequest(http.MethodOptions, "/posts", nil)
	req.Header.Set("Origin", "http://localhost:3001")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
}
