package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
)

const (
	sessionUserKey = "user_id"
	contextUserKey = "current_user"
	loginPath      = "/login"
	defaultNext    = "/profile/"
)

type loginForm struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
	Next     string `json:"next" form:"next"`
}

// ShowLoginPage 返回登录表单需要的字段
func (a *API) ShowLoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form": gin.H{"username": "", "password": ""},
		"next": safeNext(c.Query("next")),
	})
}

// Login 校验账号密码并写入会话，成功后跳转到 next。
func (a *API) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, "invalid form data")
		return
	}
	if form.Next == "" {
		form.Next = c.Query("next")
	}

	user, err := a.users.Authenticate(c.Request.Context(), form.Username, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			a.logger.Info("login failed", zap.String("username", form.Username), zap.String("ip", c.ClientIP()))
		}
		a.respondServiceError(c, err, nil)
		return
	}

	session := sessions.Default(c)
	session.Set(sessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		a.respondServiceError(c, err, nil)
		return
	}

	c.Redirect(http.StatusFound, safeNext(form.Next))
}

// Logout 清空会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	_ = session.Save()
	c.Redirect(http.StatusFound, "/posts/")
}

// AuthRequired 要求已登录；未登录时重定向到登录页并带上 next。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := a.sessionUser(c)
		if user == nil {
			target := loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// StaffRequired 要求当前用户为审核员，需放在 AuthRequired 之后。
func (a *API) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsStaff {
			respondError(c, http.StatusForbidden, service.ErrForbidden.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

func (a *API) sessionUser(c *gin.Context) *db.User {
	session := sessions.Default(c)
	raw := session.Get(sessionUserKey)
	if raw == nil {
		return nil
	}

	var id uint
	switch v := raw.(type) {
	case uint:
		id = v
	case int:
		id = uint(v)
	case int64:
		id = uint(v)
	case uint64:
		id = uint(v)
	default:
		return nil
	}

	user, err := a.users.Get(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, service.ErrUserNotFound) {
			a.logger.Warn("load session user failed", zap.Uint("user_id", id), zap.Error(err))
		}
		return nil
	}
	return user
}

// currentUser 返回 AuthRequired 写入上下文的用户。
func currentUser(c *gin.Context) *db.User {
	if v, ok := c.Get(contextUserKey); ok {
		if user, ok := v.(*db.User); ok {
			return user
		}
	}
	return nil
}

// safeNext 只允许站内相对路径，防止开放重定向。
func safeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultNext
	}
	return next
}
