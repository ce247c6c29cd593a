package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Profile 列出当前作者自己的已发布文章
func (a *API) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	page, err := a.posts.ListByAuthor(c.Request.Context(), user.ID, c.Query("page"))
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":  authorView{ID: user.ID, Username: user.Username},
		"posts": a.toPostPage(page),
	})
}
