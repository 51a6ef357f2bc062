package model

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// Movie 电影模型（TMDB 元数据）
// 标题是推荐流程中的唯一标识：向量检索可能把同一部电影的多个切片
// 返回多次，去重一律按标题进行。
type Movie struct {
	ID               int              `json:"id" db:"id"`
	TMDBID           int              `json:"tmdb_id" db:"tmdb_id" gorm:"uniqueIndex"`
	Title            string           `json:"title" db:"title"`
	OriginalTitle    string           `json:"original_title" db:"original_title"`
	Overview         string           `json:"overview" db:"overview"`
	Tagline          string           `json:"tagline" db:"tagline"`
	ReleaseDate      string           `json:"release_date" db:"release_date" gorm:"index"` // YYYY-MM-DD
	Poster           string           `json:"poster" db:"poster"`
	Runtime          int              `json:"runtime" db:"runtime"`
	Rating           float64          `json:"rating" db:"rating"`
	Popularity       float64          `json:"popularity" db:"popularity"`
	OriginalLanguage string           `json:"original_language" db:"original_language"`
	Director         string           `json:"director" db:"director"`
	Genres           pq.StringArray   `json:"genres" db:"genres" gorm:"type:text[]"`
	MainCast         pq.StringArray   `json:"main_cast" db:"main_cast" gorm:"type:text[]"`
	Keywords         pq.StringArray   `json:"keywords" db:"keywords" gorm:"type:text[]"`
	Countries        pq.StringArray   `json:"countries" db:"countries" gorm:"type:text[]"`
	Companies        pq.StringArray   `json:"companies" db:"companies" gorm:"type:text[]"`
	EmbeddingContent string           `json:"embedding_content" db:"embedding_content"`
	Embedding        *pgvector.Vector `json:"-" db:"embedding" gorm:"type:vector(768)"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at" gorm:"index"`
}

// ReleaseYear 从发行日期截取年份，模板展示用
func (m Movie) ReleaseYear() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// RankedMovie 带推荐理由的电影，仅在最终结果中存在，不落库
type RankedMovie struct {
	Movie       Movie  `json:"movie"`
	MatchReason string `json:"match_reason"`
}
