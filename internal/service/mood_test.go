package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinemood/internal/model"
)

// llmStep 单次调用的脚本化响应
type llmStep struct {
	resp string
	err  error
}

// fakeLLM 按脚本逐次返回响应，并记录收到的提示词
type fakeLLM struct {
	steps   []llmStep
	prompts []string
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.steps) == 0 {
		return "", errors.New("脚本已耗尽")
	}
	step := f.steps[0]
	f.steps = f.steps[1:]
	return step.resp, step.err
}

func newMoodService(steps ...llmStep) (*MoodService, *fakeLLM) {
	llm := &fakeLLM{steps: steps}
	return NewMoodService(llm, NewMoodVocabulary()), llm
}

func TestDetectMoodResolved(t *testing.T) {
	svc, llm := newMoodService(llmStep{
		resp: `{"detected_moods": ["happy", "cheerful", "joyful"], "extracted_words": ["great", "day"]}`,
	})

	d := svc.DetectMood(context.Background(), "What a great day!")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"happy", "cheerful", "joyful"}, d.Moods)
	assert.Empty(t, d.Keywords)
	assert.Len(t, llm.prompts, 1, "全部词在词表内，不应触发重映射")
}

func TestDetectMoodInvalidInput(t *testing.T) {
	svc, _ := newMoodService(llmStep{
		resp: `{"detected_moods": ["invalid"], "extracted_words": []}`,
	})

	d := svc.DetectMood(context.Background(), "What time is it?")

	assert.Equal(t, model.MoodInvalid, d.Status)
	assert.Empty(t, d.Moods)
}

func TestDetectMoodRemapsUnknownWords(t *testing.T) {
	svc, llm := newMoodService(
		llmStep{resp: `{"detected_moods": ["happy", "blissful", "melancholic"], "extracted_words": []}`},
		llmStep{resp: "joyful"},
	)

	d := svc.DetectMood(context.Background(), "mixed feelings")

	require.Equal(t, model.MoodResolved, d.Status)
	// 词表内的词在前，重映射结果追加在后
	assert.Equal(t, []string{"happy", "melancholic", "joyful"}, d.Moods)
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "blissful")
}

func TestDetectMoodRemapOutOfVocabFallsToNeutral(t *testing.T) {
	svc, _ := newMoodService(
		llmStep{resp: `{"detected_moods": ["euphoric", "happy"], "extracted_words": []}`},
		llmStep{resp: "['rapturous']"}, // 重映射结果仍在词表外
	)

	d := svc.DetectMood(context.Background(), "over the moon")

	require.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"happy", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodPadsToThree(t *testing.T) {
	svc, _ := newMoodService(llmStep{
		resp: `{"detected_moods": ["tired"], "extracted_words": ["long", "day"]}`,
	})

	d := svc.DetectMood(context.Background(), "long day")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"tired", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodDedupesRepeatedLabels(t *testing.T) {
	svc, _ := newMoodService(llmStep{
		resp: `{"detected_moods": ["happy", "happy", "happy"], "extracted_words": []}`,
	})

	d := svc.DetectMood(context.Background(), "happy happy happy")

	assert.Equal(t, []string{"happy", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodAmbiguousWithKeywords(t *testing.T) {
	svc, _ := newMoodService(
		llmStep{resp: `{"detected_moods": ["xyzzy"], "extracted_words": ["rainy", "night"]}`},
		llmStep{resp: "neutral"},
	)

	d := svc.DetectMood(context.Background(), "rainy night vibes")

	assert.Equal(t, model.MoodAmbiguous, d.Status)
	assert.Equal(t, []string{"neutral", "neutral", "neutral"}, d.Moods)
	assert.Equal(t, []string{"rainy", "night"}, d.Keywords)
}

func TestDetectMoodAllNeutralWithoutKeywordsStaysResolved(t *testing.T) {
	svc, _ := newMoodService(llmStep{
		resp: `{"detected_moods": ["neutral"], "extracted_words": []}`,
	})

	d := svc.DetectMood(context.Background(), "whatever")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"neutral", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodTransportErrorFallsBack(t *testing.T) {
	svc, _ := newMoodService(llmStep{err: errors.New("connection refused")})

	d := svc.DetectMood(context.Background(), "anything")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"neutral", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodMalformedJSONFallsBack(t *testing.T) {
	svc, _ := newMoodService(llmStep{resp: "I am feeling chatty today."})

	d := svc.DetectMood(context.Background(), "anything")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"neutral", "neutral", "neutral"}, d.Moods)
}

func TestDetectMoodStripsCodeFence(t *testing.T) {
	svc, _ := newMoodService(llmStep{
		resp: "```json\n{\"detected_moods\": [\"calm\", \"relaxed\", \"content\"], \"extracted_words\": []}\n```",
	})

	d := svc.DetectMood(context.Background(), "so relaxed")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"calm", "relaxed", "content"}, d.Moods)
}

func TestDetectMoodRemapFailureFillsNeutral(t *testing.T) {
	svc, _ := newMoodService(
		llmStep{resp: `{"detected_moods": ["happy", "xyzzy", "plugh"], "extracted_words": []}`},
		llmStep{err: errors.New("timeout")},
	)

	d := svc.DetectMood(context.Background(), "odd words")

	assert.Equal(t, model.MoodResolved, d.Status)
	assert.Equal(t, []string{"happy", "neutral", "neutral"}, d.Moods)
}

func TestNormalizeMoods(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"三个不同的词原样保留", []string{"happy", "sad", "angry"}, []string{"happy", "sad", "angry"}},
		{"超出三个截断", []string{"happy", "sad", "angry", "calm"}, []string{"happy", "sad", "angry"}},
		{"不足三个补neutral", []string{"happy"}, []string{"happy", "neutral", "neutral"}},
		{"去重保留首次出现", []string{"sad", "happy", "sad"}, []string{"sad", "happy", "neutral"}},
		{"空输入全neutral", nil, []string{"neutral", "neutral", "neutral"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeMoods(tt.input))
		})
	}
}
