package repository

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/user/cinemood/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovieRepository struct {
	db *gorm.DB
}

func NewMovieRepository(db *gorm.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// Upsert 按 TMDB ID 创建或更新电影
func (r *MovieRepository) Upsert(movie *model.Movie) error {
	movie.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tmdb_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "original_title", "overview", "tagline", "release_date",
			"poster", "runtime", "rating", "popularity", "original_language",
			"director", "genres", "main_cast", "keywords", "countries",
			"companies", "updated_at",
		}),
	}).Create(movie).Error
}

// FindByTMDBID 根据 TMDB ID 查找电影
func (r *MovieRepository) FindByTMDBID(tmdbID int) (*model.Movie, error) {
	var movie model.Movie
	err := r.db.Where("tmdb_id = ?", tmdbID).First(&movie).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &movie, nil
}

// ListAll 列出全部电影（向量重建任务用）
func (r *MovieRepository) ListAll() ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.Order("id").Find(&movies).Error
	return movies, err
}

// Count 电影总数
func (r *MovieRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Count(&count).Error
	return count, err
}

// CountEmbedded 已生成向量的电影数
func (r *MovieRepository) CountEmbedded() (int64, error) {
	var count int64
	err := r.db.Model(&model.Movie{}).Where("embedding IS NOT NULL").Count(&count).Error
	return count, err
}

// UpdateEmbedding 写入电影的向量及其来源文本
func (r *MovieRepository) UpdateEmbedding(id int, content string, vec pgvector.Vector) error {
	return r.db.Model(&model.Movie{}).Where("id = ?", id).Updates(map[string]interface{}{
		"embedding_content": content,
		"embedding":         vec,
		"updated_at":        time.Now(),
	}).Error
}

// FindNearest 按向量距离检索候选电影
// 只返回简介非空、发行日期早于 cutoff 的行，按余弦距离升序
func (r *MovieRepository) FindNearest(vec pgvector.Vector, cutoff string, limit int) ([]model.Movie, error) {
	var movies []model.Movie
	err := r.db.Raw(`
		SELECT * FROM movies
		WHERE embedding IS NOT NULL
		  AND overview <> ''
		  AND release_date <> ''
		  AND release_date < ?
		ORDER BY embedding <=> ?
		LIMIT ?
	`, cutoff, vec, limit).Scan(&movies).Error
	return movies, err
}
