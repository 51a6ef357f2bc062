package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/user/cinemood/internal/model"
	"github.com/user/cinemood/internal/utils"
	"golang.org/x/sync/singleflight"
)

// ErrNotAMood 输入与任何情绪无关，属用户侧状况而非故障
var ErrNotAMood = errors.New("输入内容与情绪无关")

const (
	// DefaultMatchReason 排序结果缺少理由时的兜底文案
	DefaultMatchReason = "This movie appears to be a good match based on its emotional tone and themes."
	// TrendingMatchReason 无法识别情绪、也没有关键词时的文案
	TrendingMatchReason = "Trending movie recommendation."
)

// CandidateProvider 候选池提供方
// 两种实现：TMDB 周榜直取（CatalogService）和向量相似度检索
// （EmbeddingService），对排序逻辑而言完全等价
type CandidateProvider interface {
	Candidates(ctx context.Context, signal []string, limit int) ([]model.Movie, error)
}

// Recommendation 一次推荐请求的完整结果
type Recommendation struct {
	Moods     []string            `json:"moods,omitempty"`
	Keywords  []string            `json:"keywords,omitempty"`
	BestGuess bool                `json:"best_guess"` // 情绪不明、按关键词猜测
	Movies    []model.RankedMovie `json:"movies"`
}

// RecommendService 推荐服务：情绪归一化 → 候选池 → LLM 排序 → 结果组装
type RecommendService struct {
	llm      TextGenerator
	mood     *MoodService
	provider CandidateProvider
	poolSize int
	cache    *utils.ResultCache[*Recommendation]
	sf       singleflight.Group
}

// NewRecommendService 创建推荐服务
func NewRecommendService(llm TextGenerator, mood *MoodService, provider CandidateProvider, poolSize int) *RecommendService {
	return &RecommendService{
		llm:      llm,
		mood:     mood,
		provider: provider,
		poolSize: poolSize,
		cache:    utils.NewResultCache[*Recommendation](512, 30*time.Minute),
	}
}

// Recommend 根据用户的自由文本返回至多 3 部电影
// 返回 ErrNotAMood 表示输入与情绪无关；候选池为空时返回空结果，不算错误
func (s *RecommendService) Recommend(ctx context.Context, userInput string) (*Recommendation, error) {
	detection := s.mood.DetectMood(ctx, userInput)
	if detection.Status == model.MoodInvalid {
		return nil, ErrNotAMood
	}

	// 排序信号：正常用情绪标签，低置信时退回关键词
	signal := detection.Moods
	bestGuess := false
	if detection.Status == model.MoodAmbiguous {
		signal = detection.Keywords
		bestGuess = true
	}

	cacheKey := fmt.Sprintf("%s|%s", detection.Status, strings.Join(signal, ","))
	if cached, found := s.cache.Get(cacheKey); found {
		return cached, nil
	}

	// 相同信号的并发请求只跑一次流水线
	val, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		return s.recommendForSignal(ctx, detection, signal, bestGuess)
	})
	if err != nil {
		return nil, err
	}

	rec := val.(*Recommendation)
	s.cache.Set(cacheKey, rec)
	return rec, nil
}

func (s *RecommendService) recommendForSignal(ctx context.Context, detection model.MoodDetection, signal []string, bestGuess bool) (*Recommendation, error) {
	pool, err := s.provider.Candidates(ctx, signal, s.poolSize)
	if err != nil {
		return nil, fmt.Errorf("获取候选池失败: %w", err)
	}

	rec := &Recommendation{
		Moods:     detection.Moods,
		Keywords:  detection.Keywords,
		BestGuess: bestGuess,
	}

	if len(pool) == 0 {
		rec.Movies = []model.RankedMovie{}
		return rec, nil
	}

	// 情绪不明且没有关键词：直接取候选池前 3，不走排序
	if detection.Status == model.MoodAmbiguous && len(detection.Keywords) == 0 {
		count := 3
		if len(pool) < count {
			count = len(pool)
		}
		rec.Movies = make([]model.RankedMovie, 0, count)
		for _, movie := range pool[:count] {
			rec.Movies = append(rec.Movies, model.RankedMovie{Movie: movie, MatchReason: TrendingMatchReason})
		}
		return rec, nil
	}

	rec.Movies = s.Rank(ctx, signal, pool)
	return rec, nil
}

// rankEntry 排序调用的单条响应
type rankEntry struct {
	Index       int    `json:"index"`
	MatchReason string `json:"match_reason"`
}

// selected 排序中间态，保留候选池下标做并列时的稳定排序
type selected struct {
	movie   model.Movie
	reason  string
	poolIdx int
}

// Rank 在候选池内选出至多 3 部匹配电影
// LLM 响应经过严格校验：下标必须落在池内，空理由替换为兜底文案，
// 重复电影去掉；不足 3 条时按池序补齐。最终一律按发行日期倒序输出
func (s *RecommendService) Rank(ctx context.Context, signal []string, pool []model.Movie) []model.RankedMovie {
	if len(pool) == 0 {
		return []model.RankedMovie{}
	}

	entries, err := s.askRanker(ctx, signal, pool)
	if err != nil {
		log.Printf("[Recommend] 排序调用失败，使用候选池兜底: %v", err)
		return s.fallback(pool)
	}

	picks := make([]selected, 0, 3)
	seenTitles := make(map[string]struct{}, 3)

	for _, entry := range entries {
		if len(picks) == 3 {
			break
		}
		idx := entry.Index - 1 // 响应中的下标从 1 开始
		if idx < 0 || idx >= len(pool) {
			continue // 下标非法的条目直接丢弃，不做兜底
		}
		movie := pool[idx]
		if _, dup := seenTitles[movie.Title]; dup {
			continue
		}
		reason := strings.TrimSpace(entry.MatchReason)
		if reason == "" {
			reason = DefaultMatchReason
		}
		seenTitles[movie.Title] = struct{}{}
		picks = append(picks, selected{movie: movie, reason: reason, poolIdx: idx})
	}

	// 有效条目不足时按池序补齐
	for i, movie := range pool {
		if len(picks) == 3 {
			break
		}
		if _, dup := seenTitles[movie.Title]; dup {
			continue
		}
		seenTitles[movie.Title] = struct{}{}
		picks = append(picks, selected{movie: movie, reason: DefaultMatchReason, poolIdx: i})
	}

	return finalize(picks)
}

// askRanker 向 LLM 提交候选池摘要并解析结构化响应
func (s *RecommendService) askRanker(ctx context.Context, signal []string, pool []model.Movie) ([]rankEntry, error) {
	var digest strings.Builder
	for i, movie := range pool {
		fmt.Fprintf(&digest, "%d. %s: %s\n", i+1, movie.Title, movie.Overview)
	}

	prompt := fmt.Sprintf(`You must output only valid JSON and nothing else.
The JSON should be an array of exactly 3 objects.
Each object must have two keys: "index" (an integer) and "match_reason" (a non-empty string).

The user's detected moods or key words: %s.

Below are movie descriptions:
%s
Select the top 3 movies that best match this mood and provide a brief explanation (1-2 sentences) for each.
Respond strictly in JSON format:
[
    {"index": 1, "match_reason": "Explanation for movie 1"},
    {"index": 2, "match_reason": "Explanation for movie 2"},
    {"index": 3, "match_reason": "Explanation for movie 3"}
]`, strings.Join(signal, ", "), digest.String())

	raw, err := s.llm.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var entries []rankEntry
	if err := json.Unmarshal([]byte(extractJSON(raw)), &entries); err != nil {
		return nil, fmt.Errorf("排序响应无法解析: %w", err)
	}
	return entries, nil
}

// fallback 排序不可用时直接取候选池前 3
func (s *RecommendService) fallback(pool []model.Movie) []model.RankedMovie {
	count := 3
	if len(pool) < count {
		count = len(pool)
	}
	picks := make([]selected, 0, count)
	for i, movie := range pool[:count] {
		picks = append(picks, selected{movie: movie, reason: DefaultMatchReason, poolIdx: i})
	}
	return finalize(picks)
}

// finalize 按发行日期倒序（并列按池序）输出最终结果
// LLM 的相关度顺序在这里被有意丢弃，保证展示顺序稳定
func finalize(picks []selected) []model.RankedMovie {
	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].movie.ReleaseDate != picks[j].movie.ReleaseDate {
			return picks[i].movie.ReleaseDate > picks[j].movie.ReleaseDate
		}
		return picks[i].poolIdx < picks[j].poolIdx
	})

	result := make([]model.RankedMovie, 0, len(picks))
	for _, p := range picks {
		result = append(result, model.RankedMovie{Movie: p.movie, MatchReason: p.reason})
	}
	return result
}
