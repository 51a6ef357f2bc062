package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinemood/internal/model"
)

// fakeProvider 固定候选池，记录收到的信号
type fakeProvider struct {
	pool      []model.Movie
	err       error
	calls     int
	gotSignal []string
	gotLimit  int
}

func (f *fakeProvider) Candidates(_ context.Context, signal []string, limit int) ([]model.Movie, error) {
	f.calls++
	f.gotSignal = signal
	f.gotLimit = limit
	return f.pool, f.err
}

// testPool 5 部电影，发行日期乱序排列，方便验证最终的倒序输出
func testPool() []model.Movie {
	return []model.Movie{
		{TMDBID: 1, Title: "Alpha", Overview: "A quiet drama.", ReleaseDate: "2024-03-10"},
		{TMDBID: 2, Title: "Bravo", Overview: "A loud comedy.", ReleaseDate: "2025-06-01"},
		{TMDBID: 3, Title: "Charlie", Overview: "A space epic.", ReleaseDate: "2023-11-20"},
		{TMDBID: 4, Title: "Delta", Overview: "A heist thriller.", ReleaseDate: "2025-01-15"},
		{TMDBID: 5, Title: "Echo", Overview: "A slow burn.", ReleaseDate: "2024-08-08"},
	}
}

const resolvedDetectResp = `{"detected_moods": ["happy", "cheerful", "joyful"], "extracted_words": []}`

func newRecommendService(provider CandidateProvider, steps ...llmStep) (*RecommendService, *fakeLLM) {
	llm := &fakeLLM{steps: steps}
	mood := NewMoodService(llm, NewMoodVocabulary())
	return NewRecommendService(llm, mood, provider, 60), llm
}

func titles(movies []model.RankedMovie) []string {
	out := make([]string, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.Movie.Title)
	}
	return out
}

func TestRecommendRanksAndSortsByRecency(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[
			{"index": 1, "match_reason": "Quiet and warm."},
			{"index": 3, "match_reason": "Epic escape."},
			{"index": 5, "match_reason": "Slow and soothing."}
		]`},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	assert.False(t, rec.BestGuess)
	assert.Equal(t, []string{"happy", "cheerful", "joyful"}, rec.Moods)
	// 展示顺序是发行日期倒序，不是 LLM 的相关度顺序
	assert.Equal(t, []string{"Echo", "Alpha", "Charlie"}, titles(rec.Movies))
	assert.Equal(t, "Slow and soothing.", rec.Movies[0].MatchReason)
}

func TestRecommendSingleEntryWithBlankReason(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[{"index": 1, "match_reason": ""}]`},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	require.Len(t, rec.Movies, 3)
	// 有效条目只有 1 条且理由为空：补兜底文案，再按池序补满 3 部
	assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, titles(rec.Movies))
	for _, m := range rec.Movies {
		assert.Equal(t, DefaultMatchReason, m.MatchReason)
	}
}

func TestRecommendDropsInvalidIndexes(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[
			{"index": 0, "match_reason": "bad index"},
			{"index": 99, "match_reason": "out of range"},
			{"index": 4, "match_reason": "A tense ride."}
		]`},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	require.Len(t, rec.Movies, 3)
	// 非法下标丢弃后从池序补齐：Delta + Alpha + Bravo，再按日期倒序
	assert.Equal(t, []string{"Bravo", "Delta", "Alpha"}, titles(rec.Movies))
	for _, m := range rec.Movies {
		if m.Movie.Title == "Delta" {
			assert.Equal(t, "A tense ride.", m.MatchReason)
		} else {
			assert.Equal(t, DefaultMatchReason, m.MatchReason)
		}
	}
}

func TestRecommendDedupesRepeatedTitles(t *testing.T) {
	pool := testPool()
	pool[2].Title = "Alpha" // 池里出现同名条目
	provider := &fakeProvider{pool: pool}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[
			{"index": 1, "match_reason": "first pick"},
			{"index": 3, "match_reason": "same title again"},
			{"index": 2, "match_reason": "second pick"}
		]`},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	require.Len(t, rec.Movies, 3)
	seen := make(map[string]int)
	for _, m := range rec.Movies {
		seen[m.Movie.Title]++
	}
	assert.Equal(t, 1, seen["Alpha"], "同名电影只能出现一次")
}

func TestRecommendRankerFailureFallsBackToPool(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{err: errors.New("rate limited")},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err, "排序失败不对外暴露")
	require.Len(t, rec.Movies, 3)
	// 池前 3（Alpha/Bravo/Charlie）按日期倒序
	assert.Equal(t, []string{"Bravo", "Alpha", "Charlie"}, titles(rec.Movies))
	for _, m := range rec.Movies {
		assert.Equal(t, DefaultMatchReason, m.MatchReason)
	}
}

func TestRecommendMalformedRankerResponseFallsBack(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: "here are my picks: Alpha and Bravo"},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	require.Len(t, rec.Movies, 3)
}

func TestRecommendEmptyPool(t *testing.T) {
	provider := &fakeProvider{pool: nil}
	svc, llm := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err, "候选池为空不算错误")
	assert.Empty(t, rec.Movies)
	assert.Len(t, llm.prompts, 1, "空池不应触发排序调用")
}

func TestRecommendNotAMood(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: `{"detected_moods": ["invalid"], "extracted_words": []}`},
	)

	rec, err := svc.Recommend(context.Background(), "What time is it?")

	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNotAMood)
	assert.Zero(t, provider.calls, "无效输入不应触发候选池")
}

func TestRecommendAmbiguousUsesKeywordsAsSignal(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, llm := newRecommendService(provider,
		llmStep{resp: `{"detected_moods": ["xyzzy"], "extracted_words": ["rainy", "night"]}`},
		llmStep{resp: "neutral"}, // 重映射
		llmStep{resp: `[{"index": 2, "match_reason": "Loud fun for a rainy night."}]`},
	)

	rec, err := svc.Recommend(context.Background(), "rainy night vibes")

	require.NoError(t, err)
	assert.True(t, rec.BestGuess)
	assert.Equal(t, []string{"rainy", "night"}, provider.gotSignal)
	// 排序提示词用关键词而不是 neutral 标签
	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[2], "rainy, night")
}

func TestRecommendAmbiguousWithoutKeywordsTakesPoolHead(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider)

	detection := model.MoodDetection{
		Status: model.MoodAmbiguous,
		Moods:  []string{"neutral", "neutral", "neutral"},
	}
	rec, err := svc.recommendForSignal(context.Background(), detection, detection.Moods, true)

	require.NoError(t, err)
	require.Len(t, rec.Movies, 3)
	// 不走排序，保持候选池原序
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"}, titles(rec.Movies))
	for _, m := range rec.Movies {
		assert.Equal(t, TrendingMatchReason, m.MatchReason)
	}
}

func TestRecommendProviderErrorPropagates(t *testing.T) {
	provider := &fakeProvider{err: errors.New("db down")}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	assert.Nil(t, rec)
	assert.Error(t, err)
}

func TestRecommendCachesBySignal(t *testing.T) {
	provider := &fakeProvider{pool: testPool()}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[{"index": 1, "match_reason": "first"}]`},
		llmStep{resp: resolvedDetectResp}, // 第二次请求仍会识别情绪
	)

	first, err := svc.Recommend(context.Background(), "feeling great")
	require.NoError(t, err)

	second, err := svc.Recommend(context.Background(), "feeling great today")
	require.NoError(t, err)

	assert.Equal(t, 1, provider.calls, "相同情绪信号应命中缓存")
	assert.Equal(t, titles(first.Movies), titles(second.Movies))
}

func TestRecommendSmallPool(t *testing.T) {
	provider := &fakeProvider{pool: testPool()[:2]}
	svc, _ := newRecommendService(provider,
		llmStep{resp: resolvedDetectResp},
		llmStep{resp: `[{"index": 1, "match_reason": "only pick"}]`},
	)

	rec, err := svc.Recommend(context.Background(), "feeling great")

	require.NoError(t, err)
	assert.Len(t, rec.Movies, 2, "池不足 3 部时返回全部")
}
