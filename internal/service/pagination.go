package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// DefaultPerPage 是公开列表每页的条目数。
const DefaultPerPage = 3

// Paginator 把任意文本页码解析为合法页码，永不返回错误。
type Paginator struct {
	PerPage int
}

// Page 是一页数据及翻页信息。
type Page[T any] struct {
	Items        []T   `json:"items"`
	Number       int   `json:"number"`
	PerPage      int   `json:"per_page"`
	TotalPages   int   `json:"total_pages"`
	Total        int64 `json:"total"`
	HasNext      bool  `json:"has_next"`
	HasPrevious  bool  `json:"has_previous"`
	NextPage     int   `json:"next_page,omitempty"`
	PreviousPage int   `json:"previous_page,omitempty"`
}

func (p Paginator) perPage() int {
	if p.PerPage <= 0 {
		return DefaultPerPage
	}
	return p.PerPage
}

// TotalPages 计算总页数，零条数据时仍为 1 页。
func (p Paginator) TotalPages(total int64) int {
	if total <= 0 {
		return 1
	}
	per := int64(p.perPage())
	return int((total + per - 1) / per)
}

// Resolve 把原始页码参数解析为合法页码：
// 为空或不是整数时返回第 1 页；超出 1..last 的整数（包括溢出）返回最后一页。
func (p Paginator) Resolve(token string, total int64) int {
	last := p.TotalPages(total)

	raw := strings.TrimSpace(token)
	if raw == "" {
		return 1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return last
		}
		return 1
	}
	if n < 1 || n > last {
		return last
	}
	return n
}

// NewPage 根据页码与总数填充翻页信息。
func NewPage[T any](items []T, number, perPage int, total int64) Page[T] {
	p := Paginator{PerPage: perPage}
	totalPages := p.TotalPages(total)
	if items == nil {
		items = []T{}
	}
	page := Page[T]{
		Items:       items,
		Number:      number,
		PerPage:     p.perPage(),
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     number < totalPages,
		HasPrevious: number > 1,
	}
	if page.HasNext {
		page.NextPage = number + 1
	}
	if page.HasPrevious {
		page.PreviousPage = number - 1
	}
	return page
}

// Paginate 先统计总数再按解析后的页码查询，query 需已带好过滤与排序。
// findScopes 只作用于取数据的查询（如 Preload），不参与计数。
func Paginate[T any](ctx context.Context, query *gorm.DB, p Paginator, token string, findScopes ...func(*gorm.DB) *gorm.DB) (Page[T], error) {
	var total int64
	if err := query.WithContext(ctx).Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	number := p.Resolve(token, total)
	per := p.perPage()

	var items []T
	if total > 0 {
		if err := query.WithContext(ctx).Session(&gorm.Session{}).
			Scopes(findScopes...).
			Offset((number - 1) * per).
			Limit(per).
			Find(&items).Error; err != nil {
			return Page[T]{}, err
		}
	}
	return NewPage(items, number, per, total), nil
}
