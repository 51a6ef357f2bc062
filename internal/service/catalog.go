package service

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/user/cinemood/internal/model"
	"github.com/user/cinemood/internal/repository"
	"github.com/user/cinemood/internal/utils"
	"golang.org/x/sync/singleflight"
)

const tmdbPageSize = 20

// CatalogService 片库服务：TMDB 周榜候选池 + 元数据入库
type CatalogService struct {
	movieRepo *repository.MovieRepository
	http      *utils.HTTPClient
	baseURL   string
	imageURL  string
	group     singleflight.Group
}

// NewCatalogService 创建片库服务
func NewCatalogService(repo *repository.MovieRepository, http *utils.HTTPClient) *CatalogService {
	return &CatalogService{
		movieRepo: repo,
		http:      http,
		baseURL:   "https://api.themoviedb.org/3",
		imageURL:  "https://image.tmdb.org/t/p/w500",
	}
}

// SetBaseURL 覆盖 API 地址（测试用）
func (s *CatalogService) SetBaseURL(url string) {
	s.baseURL = url
}

// FirstDayOfWeek 本周一（UTC），发行日期必须严格早于它才算已上映
func FirstDayOfWeek() string {
	now := time.Now().UTC()
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // 周日按 7 算，保证回退到本周一
	}
	monday := now.AddDate(0, 0, -(weekday - 1))
	return monday.Format("2006-01-02")
}

type tmdbTrendingResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID          int     `json:"id"`
		Title       string  `json:"title"`
		Overview    string  `json:"overview"`
		ReleaseDate string  `json:"release_date"`
		PosterPath  string  `json:"poster_path"`
		Popularity  float64 `json:"popularity"`
		VoteAverage float64 `json:"vote_average"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

// Candidates 实现 CandidateProvider：周榜直取，忽略情绪信号
func (s *CatalogService) Candidates(ctx context.Context, _ []string, limit int) ([]model.Movie, error) {
	return s.Trending(ctx, limit)
}

// Trending 拉取至多 limit 部已上映、简介非空的周榜电影，按发行日期倒序
// 结果缓存 10 分钟，同榜单在请求间复用
func (s *CatalogService) Trending(ctx context.Context, limit int) ([]model.Movie, error) {
	cacheKey := fmt.Sprintf("tmdb:trending:%d", limit)
	if cached, found := utils.CacheGet(cacheKey); found {
		if movies, ok := cached.([]model.Movie); ok {
			return movies, nil
		}
	}

	cutoff := FirstDayOfWeek()
	pagesToFetch := limit/tmdbPageSize + 1

	var movies []model.Movie
	for page := 1; page <= pagesToFetch; page++ {
		resp, err := s.fetchTrendingPage(page)
		if err != nil {
			// 已有部分结果时不让单页失败拖垮整个候选池
			log.Printf("[Catalog] 拉取周榜第 %d 页失败: %v", page, err)
			if len(movies) == 0 {
				return nil, err
			}
			break
		}

		for _, item := range resp.Results {
			if !eligible(item.Overview, item.ReleaseDate, cutoff) {
				continue
			}
			poster := ""
			if item.PosterPath != "" {
				poster = s.imageURL + item.PosterPath
			}
			movies = append(movies, model.Movie{
				TMDBID:      item.ID,
				Title:       item.Title,
				Overview:    item.Overview,
				ReleaseDate: item.ReleaseDate,
				Poster:      poster,
				Popularity:  item.Popularity,
				Rating:      item.VoteAverage,
			})
		}

		if len(movies) >= limit || page >= resp.TotalPages {
			break
		}
	}

	// 发行日期倒序，ISO 日期串直接按字典序比较
	sort.SliceStable(movies, func(i, j int) bool {
		return movies[i].ReleaseDate > movies[j].ReleaseDate
	})
	if len(movies) > limit {
		movies = movies[:limit]
	}

	utils.CacheSet(cacheKey, movies, 10*time.Minute)
	return movies, nil
}

func (s *CatalogService) fetchTrendingPage(page int) (*tmdbTrendingResponse, error) {
	url := fmt.Sprintf("%s/trending/movie/week?language=en-US&page=%d", s.baseURL, page)
	var resp tmdbTrendingResponse
	if err := s.http.GetJSON(url, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// eligible 入池资格：简介非空且发行日期可解析、严格早于 cutoff
func eligible(overview, releaseDate, cutoff string) bool {
	if overview == "" || releaseDate == "" {
		return false
	}
	if _, err := time.Parse("2006-01-02", releaseDate); err != nil {
		return false
	}
	return releaseDate < cutoff
}

type tmdbDetailsResponse struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          int     `json:"runtime"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	OriginalLanguage string  `json:"original_language"`
	PosterPath       string  `json:"poster_path"`
	Genres           []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCountries []struct {
		Name string `json:"name"`
	} `json:"production_countries"`
	ProductionCompanies []struct {
		Name string `json:"name"`
	} `json:"production_companies"`
	Keywords struct {
		Keywords []struct {
			Name string `json:"name"`
		} `json:"keywords"`
	} `json:"keywords"`
}

type tmdbCreditsResponse struct {
	Cast []struct {
		Name string `json:"name"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

// SyncTrending 同步周榜电影的完整元数据到数据库
// singleflight 保证并发触发时只跑一个同步任务；返回入库数量
func (s *CatalogService) SyncTrending(ctx context.Context, maxMovies int) (int, error) {
	val, err, _ := s.group.Do("sync", func() (interface{}, error) {
		return s.syncTrendingInternal(ctx, maxMovies)
	})
	if err != nil {
		return 0, err
	}
	return val.(int), nil
}

func (s *CatalogService) syncTrendingInternal(ctx context.Context, maxMovies int) (int, error) {
	trending, err := s.Trending(ctx, maxMovies)
	if err != nil {
		return 0, fmt.Errorf("拉取周榜失败: %w", err)
	}

	log.Printf("[Catalog] 开始同步 %d 部电影的详细元数据...", len(trending))

	synced := 0
	for i, movie := range trending {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		full, err := s.fetchMovieDetails(movie.TMDBID)
		if err != nil {
			log.Printf("[Catalog] 获取电影详情失败 (TMDB ID: %d): %v", movie.TMDBID, err)
			continue
		}

		if err := s.movieRepo.Upsert(full); err != nil {
			log.Printf("[Catalog] 电影入库失败 (TMDB ID: %d): %v", movie.TMDBID, err)
			continue
		}
		synced++

		if (i+1)%10 == 0 || i+1 == len(trending) {
			log.Printf("[Catalog] 已处理 %d/%d 部电影", i+1, len(trending))
		}
	}

	log.Printf("[Catalog] 同步完成，共入库 %d 部电影", synced)
	return synced, nil
}

// fetchMovieDetails 拉取单部电影的完整元数据（含关键词与演职员）
func (s *CatalogService) fetchMovieDetails(tmdbID int) (*model.Movie, error) {
	var details tmdbDetailsResponse
	url := fmt.Sprintf("%s/movie/%d?append_to_response=keywords", s.baseURL, tmdbID)
	if err := s.http.GetJSON(url, &details); err != nil {
		return nil, err
	}

	var credits tmdbCreditsResponse
	url = fmt.Sprintf("%s/movie/%d/credits", s.baseURL, tmdbID)
	if err := s.http.GetJSON(url, &credits); err != nil {
		return nil, err
	}

	movie := &model.Movie{
		TMDBID:           details.ID,
		Title:            details.Title,
		OriginalTitle:    details.OriginalTitle,
		Overview:         details.Overview,
		Tagline:          details.Tagline,
		ReleaseDate:      details.ReleaseDate,
		Runtime:          details.Runtime,
		Rating:           details.VoteAverage,
		Popularity:       details.Popularity,
		OriginalLanguage: details.OriginalLanguage,
	}
	if details.PosterPath != "" {
		movie.Poster = s.imageURL + details.PosterPath
	}
	for _, g := range details.Genres {
		movie.Genres = append(movie.Genres, g.Name)
	}
	for _, c := range details.ProductionCountries {
		movie.Countries = append(movie.Countries, c.Name)
	}
	for _, c := range details.ProductionCompanies {
		movie.Companies = append(movie.Companies, c.Name)
	}
	for _, k := range details.Keywords.Keywords {
		movie.Keywords = append(movie.Keywords, k.Name)
	}
	// 前 5 位主演
	for i, c := range credits.Cast {
		if i == 5 {
			break
		}
		movie.MainCast = append(movie.MainCast, c.Name)
	}
	for _, c := range credits.Crew {
		if c.Job == "Director" {
			movie.Director = c.Name
			break
		}
	}

	return movie, nil
}
