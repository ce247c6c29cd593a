package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondValidation(c *gin.Context, fields map[string]string, form any) {
	body := gin.H{"errors": fields}
	if form != nil {
		body["form"] = form
	}
	c.JSON(http.StatusBadRequest, body)
}

// respondServiceError 把服务层错误映射为 HTTP 状态码，未知错误记日志并返回 500。
func (a *API) respondServiceError(c *gin.Context, err error, form any) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondValidation(c, vErr.Fields, form)
	case errors.Is(err, service.ErrImageCountInvalid):
		respondValidation(c, map[string]string{"images": err.Error()}, form)
	case errors.Is(err, service.ErrInvalidStatus):
		respondValidation(c, map[string]string{"status": err.Error()}, form)
	case errors.Is(err, service.ErrInvalidSlug):
		respondValidation(c, map[string]string{"slug": err.Error()}, form)
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrImageNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, err.Error())
	default:
		_ = c.Error(err)
		a.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}
