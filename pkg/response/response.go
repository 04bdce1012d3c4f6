package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
)

// ErrorBody is the single error contract returned to clients.
type ErrorBody struct {
	Error string `json:"error"`
}

// OKBody acknowledges an operation without a resource payload.
type OKBody struct {
	OK bool `json:"ok"`
}

// JSON sends a success response with the payload as-is.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// OK responds with {"ok": true}.
func OK(c *gin.Context) {
	JSON(c, http.StatusOK, OKBody{OK: true})
}

// Error sends an error response converting the error to the common structure.
// Internal failures never leak their cause to the client.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	message := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		message = appErrors.ErrInternal.Message
		_ = c.Error(err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Error: message})
}

// AbortWithError writes the error response and stops the handler chain.
func AbortWithError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
