package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/newshub/internal/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RelevanceFloor 相似度必须严格大于该值才算命中。
const RelevanceFloor = 0.1

// SearchResult 是一条排序后的搜索结果，Similarity 缺省为 0。
type SearchResult struct {
	Post       db.Post `json:"post"`
	Similarity float64 `json:"similarity"`
}

// SearchService 在文章标题、正文以及配图标题、描述上做模糊匹配。
type SearchService struct {
	db     *gorm.DB
	logger *zap.Logger
}

type searchCandidate struct {
	PostID     uint
	Similarity float64
}

// searchTarget 描述一次候选查询：表、被比较的列，以及图片命中时如何回到文章。
type searchTarget struct {
	name   string
	column string
	image  bool
}

var searchTargets = []searchTarget{
	{name: "post.title", column: "posts.title"},
	{name: "post.description", column: "posts.description"},
	{name: "image.title", column: "images.title", image: true},
	{name: "image.description", column: "images.description", image: true},
}

func NewSearchService(gdb *gorm.DB, logger *zap.Logger) *SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{db: gdb, logger: logger}
}

// Search 依次执行四个候选查询，按文章去重（保留最高分），再按相似度倒序返回。
// 同分时按 publish 倒序、id 倒序。空查询直接返回空结果。
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}

	scores := make(map[uint]float64)
	for _, target := range searchTargets {
		candidates, err := s.candidates(ctx, target, query)
		if err != nil {
			return nil, fmt.Errorf("search %s: %w", target.name, err)
		}
		for _, c := range candidates {
			if prev, ok := scores[c.PostID]; !ok || c.Similarity > prev {
				scores[c.PostID] = c.Similarity
			}
		}
	}
	if len(scores) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]uint, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}

	var posts []db.Post
	if err := s.db.WithContext(ctx).
		Scopes(withAuthorAndImages).
		Where("posts.id IN ?", ids).
		Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("load search results: %w", err)
	}

	results := make([]SearchResult, 0, len(posts))
	for _, post := range posts {
		results = append(results, SearchResult{Post: post, Similarity: scores[post.ID]})
	}
	sortResults(results)

	s.logger.Debug("search finished", zap.String("query", query), zap.Int("results", len(results)))
	return results, nil
}

func (s *SearchService) candidates(ctx context.Context, target searchTarget, query string) ([]searchCandidate, error) {
	var out []searchCandidate

	tx := s.db.WithContext(ctx)
	if target.image {
		tx = tx.Table("images").
			Select("images.post_id AS post_id, similarity("+target.column+", ?) AS similarity", query).
			Joins("JOIN posts ON posts.id = images.post_id")
	} else {
		tx = tx.Table("posts").
			Select("posts.id AS post_id, similarity("+target.column+", ?) AS similarity", query)
	}

	err := tx.
		Where("posts.status = ?", db.StatusPublished).
		Where("similarity("+target.column+", ?) > ?", query, RelevanceFloor).
		Scan(&out).Error
	return out, err
}

func sortResults(results []SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if !a.Post.Publish.Equal(b.Post.Publish) {
			return a.Post.Publish.After(b.Post.Publish)
		}
		return a.Post.ID > b.Post.ID
	})
}
