package handler

import (
	"time"

	"github.com/newshub/internal/db"
	"github.com/newshub/internal/service"
)

type authorView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

type imageView struct {
	ID          uint   `json:"id"`
	URL         string `json:"url"`
	File        string `json:"file"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type postView struct {
	ID              uint          `json:"id"`
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Description     string        `json:"description"`
	DescriptionHTML string        `json:"description_html,omitempty"`
	Status          db.PostStatus `json:"status"`
	Publish         time.Time     `json:"publish"`
	Created         time.Time     `json:"created"`
	Updated         time.Time     `json:"updated"`
	ReadingTime     int           `json:"reading_time"`
	Author          *authorView   `json:"author,omitempty"`
	Images          []imageView   `json:"images"`
	URL             string        `json:"url"`
	Similarity      *float64      `json:"similarity,omitempty"`
}

type commentView struct {
	ID      uint      `json:"id"`
	PostID  uint      `json:"post_id"`
	Name    string    `json:"name"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
	Active  bool      `json:"active"`
}

func (a *API) toPostView(p db.Post) postView {
	view := postView{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Description: p.Description,
		Status:      p.Status,
		Publish:     p.Publish,
		Created:     p.CreatedAt,
		Updated:     p.UpdatedAt,
		ReadingTime: p.ReadingTime,
		Images:      make([]imageView, 0, len(p.Images)),
		URL:         postURL(p.ID),
	}
	if p.Author != nil {
		view.Author = &authorView{ID: p.Author.ID, Username: p.Author.Username}
	}
	for _, img := range p.Images {
		view.Images = append(view.Images, imageView{
			ID:          img.ID,
			URL:         a.media.URL(img.File),
			File:        img.File,
			Title:       img.Title,
			Description: img.Description,
		})
	}
	return view
}

func (a *API) toPostPage(page service.Page[db.Post]) service.Page[postView] {
	views := make([]postView, 0, len(page.Items))
	for _, p := range page.Items {
		views = append(views, a.toPostView(p))
	}
	return service.NewPage(views, page.Number, page.PerPage, page.Total)
}

func toCommentView(c db.Comment) commentView {
	return commentView{
		ID:      c.ID,
		PostID:  c.PostID,
		Name:    c.Name,
		Body:    c.Body,
		Created: c.CreatedAt,
		Active:  c.Active,
	}
}

func toCommentViews(comments []db.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentView(c))
	}
	return out
}
