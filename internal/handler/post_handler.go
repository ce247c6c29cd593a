package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/newshub/internal/service"
	"go.uber.org/zap"
)

// 新建文章表单中的图片字段
var imageFields = []string{"image1", "image2"}

type createPostForm struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	Slug        string `json:"slug" form:"slug"`
	ReadingTime string `json:"reading_time" form:"reading_time"`
}

// ShowCreatePostForm 返回新建文章表单的字段说明
func (a *API) ShowCreatePostForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"form":   createPostForm{},
		"images": imageFields,
	})
}

// CreatePost 处理 multipart 表单：文章字段加上恰好两张图片。
func (a *API) CreatePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}

	var form createPostForm
	if err := c.ShouldBind(&form); err != nil {
		respondValidation(c, map[string]string{"form": "invalid form data"}, form)
		return
	}

	readingTime := 0
	if raw := strings.TrimSpace(form.ReadingTime); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondValidation(c, map[string]string{"reading_time": "enter a whole number"}, form)
			return
		}
		readingTime = n
	}

	uploads, fieldErrs, err := readImageUploads(c)
	if err != nil {
		a.respondServiceError(c, err, form)
		return
	}
	if len(fieldErrs) > 0 {
		respondValidation(c, fieldErrs, form)
		return
	}

	post, err := a.posts.Create(c.Request.Context(), service.PostInput{
		Title:       form.Title,
		Description: form.Description,
		Slug:        form.Slug,
		ReadingTime: readingTime,
		AuthorID:    user.ID,
		Images:      uploads,
	})
	if err != nil {
		a.respondServiceError(c, err, form)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": a.toPostView(*post)})
}

// readImageUploads 读取 image1/image2 字段；缺失的字段不报错，由服务层校验数量。
func readImageUploads(c *gin.Context) ([]service.ImageUpload, map[string]string, error) {
	uploads := make([]service.ImageUpload, 0, len(imageFields))
	fieldErrs := map[string]string{}

	for _, field := range imageFields {
		header, err := c.FormFile(field)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				continue
			}
			return nil, nil, fmt.Errorf("read %s: %w", field, err)
		}
		if header.Size > maxUploadBytes {
			fieldErrs[field] = fmt.Sprintf("file is larger than %d MB", maxUploadBytes>>20)
			continue
		}

		data, err := readFormFile(header)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", field, err)
		}
		uploads = append(uploads, service.ImageUpload{
			Field:       field,
			Filename:    header.Filename,
			Data:        data,
			Title:       c.PostForm(field + "_title"),
			Description: c.PostForm(field + "_description"),
		})
	}
	return uploads, fieldErrs, nil
}

func readFormFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
}

// ShowDeletePost 返回待删除文章的确认信息，仅作者可见。
func (a *API) ShowDeletePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}
	id, err := parseUintParam(c, "post_id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrPostNotFound.Error())
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	if post.AuthorID != user.ID {
		respondError(c, http.StatusForbidden, service.ErrForbidden.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": a.toPostView(*post), "confirm": true})
}

// DeletePost 删除作者本人的文章及其评论、图片。
func (a *API) DeletePost(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}
	id, err := parseUintParam(c, "post_id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrPostNotFound.Error())
		return
	}

	if err := a.posts.Delete(c.Request.Context(), id, user.ID); err != nil {
		if errors.Is(err, service.ErrForbidden) {
			a.logger.Warn("delete post forbidden", zap.Uint("post_id", id), zap.Uint("user_id", user.ID))
		}
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id, "redirect": "/profile/"})
}

// DeleteImage 删除作者本人文章下的一张图片。
func (a *API) DeleteImage(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		respondError(c, http.StatusUnauthorized, "login required")
		return
	}
	id, err := parseUintParam(c, "image_id")
	if err != nil {
		respondError(c, http.StatusNotFound, service.ErrImageNotFound.Error())
		return
	}

	if err := a.images.Delete(c.Request.Context(), id, user.ID); err != nil {
		a.respondServiceError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
