package handler

import (
	"errors"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/middleware"
	"github.com/YashVG/techprep-sub000/internal/models"
	appErrors "github.com/YashVG/techprep-sub000/pkg/errors"
	"github.com/YashVG/techprep-sub000/pkg/response"
)

func principal(c *gin.Context) models.Principal {
	return middleware.Principal(c)
}

func requestMeta(c *gin.Context) dto.RequestMeta {
	return dto.RequestMeta{IP: c.ClientIP(), Endpoint: c.Request.Method + " " + c.Request.URL.Path}
}

// bindJSON decodes the body into dst. An empty body leaves dst untouched so
// field validation can report what is missing.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Validation(err, "invalid request payload"))
		return false
	}
	return true
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+name))
		return 0, false
	}
	return id, true
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
