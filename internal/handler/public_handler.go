package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
)

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d", id)
}

// ListPosts 分页展示已发布文章，page 参数非法时回退到合法页。
func (a *API) ListPosts(c *gin.Context) {
	page, err := a.posts.ListPublished(c.Request.Context(), c.Query("page"))
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": a.toPostPage(page)})
}

// ShowPost 展示单篇已发布文章、已审核评论及空白评论表单。
func (a *API) ShowPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrPostNotFound.Error())
		return
	}

	ctx := c.Request.Context()
	post, err := a.posts.GetPublished(ctx, id)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	comments, err := a.comments.Approved(ctx, post.ID)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}

	view := a.toPostView(*post)
	if rendered, err := renderMarkdown(post.Description); err == nil {
		view.DescriptionHTML = rendered
	} else {
		a.logger.Warn("render markdown failed", zap.Uint("post_id", post.ID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"post":     view,
		"comments": toCommentViews(comments),
		"form":     service.CommentInput{},
	})
}

// PostComment 提交评论，评论需审核后才会公开。
func (a *API) PostComment(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrPostNotFound.Error())
		return
	}

	var input service.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		respondValidation(c, map[string]string{"form": "invalid form data"}, input)
		return
	}

	comment, err := a.comments.Create(c.Request.Context(), id, input)
	if err != nil {
		a.respondServiceError(c, err, input)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"post_id": id,
		"comment": toCommentView(*comment),
		"message": "comment submitted and waiting for moderation",
	})
}

// ShowTicketForm 返回工单表单及可选主题。
func (a *API) ShowTicketForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":     service.TicketInput{},
		"subjects": service.TicketSubjects,
	})
}

// SubmitTicket 保存访客工单。
func (a *API) SubmitTicket(c *gin.Context) {
	var input service.TicketInput
	if err := c.ShouldBind(&input); err != nil {
		respondValidation(c, map[string]string{"form": "invalid form data"}, input)
		return
	}

	ticket, err := a.tickets.Create(c.Request.Context(), input)
	if err != nil {
		a.respondServiceError(c, err, input)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ticket_id": ticket.ID, "sent": true})
}

// Search 按相似度排序返回匹配的已发布文章。
func (a *API) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))

	results, err := a.search.Search(c.Request.Context(), query)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}

	views := make([]postView, 0, len(results))
	for _, r := range results {
		view := a.toPostView(r.Post)
		score := r.Similarity
		view.Similarity = &score
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": views})
}

// Stats 返回侧边栏统计数据。
func (a *API) Stats(c *gin.Context) {
	stats, err := a.posts.Stats(c.Request.Context())
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Healthz is the liveness probe.
func (a *API) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
