package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/db"
	"github.com/newshub/internal/service"
)

type commentActiveForm struct {
	Active *bool `json:"active" form:"active"`
}

type postStatusForm struct {
	Status string `json:"status" form:"status"`
}

// ListPendingComments 分页列出待审核评论
func (a *API) ListPendingComments(c *gin.Context) {
	page, err := a.comments.ListPending(c.Request.Context(), c.Query("page"))
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}

	views := make([]commentView, 0, len(page.Items))
	for _, item := range page.Items {
		views = append(views, toCommentView(item))
	}
	c.JSON(http.StatusOK, gin.H{"comments": service.NewPage(views, page.Number, page.PerPage, page.Total)})
}

// SetCommentActive 审核通过或撤回评论
func (a *API) SetCommentActive(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrCommentNotFound.Error())
		return
	}

	var form commentActiveForm
	if err := c.ShouldBind(&form); err != nil || form.Active == nil {
		respondValidation(c, map[string]string{"active": "this field is required"}, nil)
		return
	}

	comment, err := a.comments.SetActive(c.Request.Context(), id, *form.Active)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comment": toCommentView(*comment)})
}

// SetPostStatus 修改文章状态（draft/published/rejected）
func (a *API) SetPostStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrPostNotFound.Error())
		return
	}

	var form postStatusForm
	if err := c.ShouldBind(&form); err != nil {
		respondValidation(c, map[string]string{"status": "this field is required"}, nil)
		return
	}

	post, err := a.posts.SetStatus(c.Request.Context(), id, form.Status)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": gin.H{"id": post.ID, "status": post.Status}, "statuses": []db.PostStatus{db.StatusDraft, db.StatusPublished, db.StatusRejected}})
}
