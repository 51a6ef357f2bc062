package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/user/cinemood/internal/model"
	"github.com/user/cinemood/internal/repository"
)

// EmbeddingService 向量服务：批量生成电影向量，并按情绪文本做相似度检索
// 同时实现 CandidateProvider，是周榜直取之外的另一种候选池策略
type EmbeddingService struct {
	movieRepo *repository.MovieRepository
	embedder  Embedder
}

// NewEmbeddingService 创建向量服务
func NewEmbeddingService(repo *repository.MovieRepository, embedder Embedder) *EmbeddingService {
	return &EmbeddingService{
		movieRepo: repo,
		embedder:  embedder,
	}
}

// BuildContent 组装电影的向量化文本
// 标题、简介加上结构化元数据，让向量同时携带题材和阵容信息
func BuildContent(m *model.Movie) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", m.Title)
	fmt.Fprintf(&b, "Overview: %s\n", m.Overview)
	fmt.Fprintf(&b, "Genres: %s\n", strings.Join(m.Genres, ", "))
	fmt.Fprintf(&b, "Main Cast: %s\n", strings.Join(m.MainCast, ", "))
	fmt.Fprintf(&b, "Director: %s\n", m.Director)
	fmt.Fprintf(&b, "Tagline: %s\n", m.Tagline)
	fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(m.Keywords, ", "))
	fmt.Fprintf(&b, "Production Countries: %s\n", strings.Join(m.Countries, ", "))
	fmt.Fprintf(&b, "Release Date: %s\n", m.ReleaseDate)
	return b.String()
}

// RebuildAll 为库内全部电影重新生成向量
// 单部失败只记日志并跳过，返回成功数量
func (s *EmbeddingService) RebuildAll(ctx context.Context) (int, error) {
	movies, err := s.movieRepo.ListAll()
	if err != nil {
		return 0, fmt.Errorf("读取片库失败: %w", err)
	}

	log.Printf("[Embedding] 开始为 %d 部电影生成向量...", len(movies))

	updated := 0
	for i, movie := range movies {
		if err := ctx.Err(); err != nil {
			return updated, err
		}

		content := BuildContent(&movie)
		vec, err := s.embedder.Embed(ctx, content)
		if err != nil {
			log.Printf("[Embedding] 生成向量失败 (%s): %v", movie.Title, err)
			continue
		}

		if err := s.movieRepo.UpdateEmbedding(movie.ID, content, pgvector.NewVector(vec)); err != nil {
			log.Printf("[Embedding] 写入向量失败 (%s): %v", movie.Title, err)
			continue
		}
		updated++

		if (i+1)%10 == 0 || i+1 == len(movies) {
			log.Printf("[Embedding] 已处理 %d/%d 部电影", i+1, len(movies))
		}
	}

	log.Printf("[Embedding] 向量重建完成，共更新 %d 部电影", updated)
	return updated, nil
}

// Candidates 实现 CandidateProvider：把情绪信号向量化后做近邻检索
// 相似度索引可能把同一标题返回多次，这里按标题去重
func (s *EmbeddingService) Candidates(ctx context.Context, signal []string, limit int) ([]model.Movie, error) {
	text := strings.Join(signal, " ")
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("情绪文本向量化失败: %w", err)
	}

	// 多取一倍再去重，避免重复标题挤掉名额
	rows, err := s.movieRepo.FindNearest(pgvector.NewVector(vec), FirstDayOfWeek(), limit*2)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	seen := make(map[string]struct{}, len(rows))
	movies := make([]model.Movie, 0, limit)
	for _, movie := range rows {
		if _, dup := seen[movie.Title]; dup {
			continue
		}
		seen[movie.Title] = struct{}{}
		movies = append(movies, movie)
		if len(movies) == limit {
			break
		}
	}

	return movies, nil
}
