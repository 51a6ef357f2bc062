package handler

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/cinemood/internal/config"
	"github.com/user/cinemood/internal/repository"
	"github.com/user/cinemood/internal/service"
	"github.com/user/cinemood/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Repos     *repository.Repositories
	Config    *config.Config
	Recommend *service.RecommendService
	Catalog   *service.CatalogService
	Embedding *service.EmbeddingService
}

// NewHandler 创建处理器并组装推荐流水线
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	// 外部服务客户端
	gemini := utils.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel)
	ollama := utils.NewOllamaClient(cfg.OllamaHost, cfg.OllamaModel)
	tmdbClient := utils.NewHTTPClient(15*time.Second, cfg.TMDBToken)

	catalog := service.NewCatalogService(repos.Movie, tmdbClient)
	embedding := service.NewEmbeddingService(repos.Movie, ollama)

	// 候选池策略：周榜直取或向量相似度，配置切换
	var provider service.CandidateProvider = catalog
	if cfg.RetrievalMode == config.RetrievalVector {
		provider = embedding
	}

	vocab := service.NewMoodVocabulary()
	moodSvc := service.NewMoodService(gemini, vocab)
	recommendSvc := service.NewRecommendService(gemini, moodSvc, provider, cfg.PoolSize)

	return &Handler{
		Repos:     repos,
		Config:    cfg,
		Recommend: recommendSvc,
		Catalog:   catalog,
		Embedding: embedding,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
	}

	// 回填上次输入的心情文本
	session := sessions.Default(c)
	if lastMood := session.Get("last_mood"); lastMood != nil {
		if text, ok := lastMood.(string); ok {
			res["LastMood"] = text
		}
	}

	for k, v := range data {
		res[k] = v
	}

	return res
}

// Home 首页：心情输入表单
func (h *Handler) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title": h.Config.SiteName + " - 按心情找电影",
	}))
}

// RecommendPage 表单提交入口，渲染推荐结果页
func (h *Handler) RecommendPage(c *gin.Context) {
	moodText := strings.TrimSpace(c.PostForm("mood_text"))
	if moodText == "" {
		c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
			"Title":   h.Config.SiteName + " - 按心情找电影",
			"Warning": "请先描述一下你现在的心情。",
		}))
		return
	}

	// 记住本次输入，下次打开表单时回填
	session := sessions.Default(c)
	session.Set("last_mood", moodText)
	_ = session.Save()

	rec, err := h.Recommend.Recommend(c.Request.Context(), moodText)
	if err != nil {
		if errors.Is(err, service.ErrNotAMood) {
			c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
				"Title":   h.Config.SiteName + " - 按心情找电影",
				"Warning": "这看起来不像是在描述心情，换个说法试试？",
			}))
			return
		}
		log.Printf("[Handler] 推荐失败: %v", err)
		c.HTML(http.StatusInternalServerError, "home.html", h.RenderData(c, gin.H{
			"Title":   h.Config.SiteName + " - 按心情找电影",
			"Warning": "服务暂时不可用，请稍后再试。",
		}))
		return
	}

	c.HTML(http.StatusOK, "results.html", h.RenderData(c, gin.H{
		"Title":     "推荐结果 - " + h.Config.SiteName,
		"MoodText":  moodText,
		"Moods":     rec.Moods,
		"Keywords":  rec.Keywords,
		"BestGuess": rec.BestGuess,
		"Movies":    rec.Movies,
		"Empty":     len(rec.Movies) == 0,
	}))
}

// NotFound 404 页面
func (h *Handler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
		"Title": "页面未找到 - " + h.Config.SiteName,
	}))
}
