package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/user/cinemood/internal/model"
)

// MoodService 情绪归一化服务
// 负责把用户的自由文本映射到规范词表内的 3 个情绪标签，
// 两次调用 LLM：先识别，再按需重映射词表外的词
type MoodService struct {
	llm   TextGenerator
	vocab *MoodVocabulary
}

// NewMoodService 创建情绪归一化服务
func NewMoodService(llm TextGenerator, vocab *MoodVocabulary) *MoodService {
	return &MoodService{
		llm:   llm,
		vocab: vocab,
	}
}

// moodDetectResponse 识别调用的结构化响应，字段类型必须严格匹配
type moodDetectResponse struct {
	DetectedMoods  []string `json:"detected_moods"`
	ExtractedWords []string `json:"extracted_words"`
}

// DetectMood 识别用户输入的情绪
// 任何网络或解析失败都降级为 3 个 neutral，绝不向上抛错，
// 保证流水线始终能给出可用结果
func (s *MoodService) DetectMood(ctx context.Context, userInput string) model.MoodDetection {
	raw, err := s.llm.GenerateText(ctx, s.detectPrompt(userInput))
	if err != nil {
		log.Printf("[Mood] 情绪识别调用失败: %v", err)
		return neutralDetection()
	}

	var resp moodDetectResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		log.Printf("[Mood] 情绪识别响应无法解析: %v", err)
		return neutralDetection()
	}

	// 完全与情绪无关的输入
	if len(resp.DetectedMoods) == 1 && strings.EqualFold(strings.TrimSpace(resp.DetectedMoods[0]), "invalid") {
		return model.MoodDetection{Status: model.MoodInvalid}
	}

	// 词表内外分流，词表外的词才需要第二次重映射调用
	var known, unknown []string
	for _, mood := range resp.DetectedMoods {
		mood = strings.ToLower(strings.TrimSpace(mood))
		if mood == "" {
			continue
		}
		if s.vocab.Contains(mood) {
			known = append(known, mood)
		} else {
			unknown = append(unknown, mood)
		}
	}

	var remapped []string
	if len(unknown) > 0 {
		remapped = s.remapMoods(ctx, unknown)
	}

	moods := normalizeMoods(append(known, remapped...))

	keywords := cleanWords(resp.ExtractedWords)
	if isAllNeutral(moods) && len(keywords) > 0 {
		return model.MoodDetection{
			Status:   model.MoodAmbiguous,
			Moods:    moods,
			Keywords: keywords,
		}
	}

	return model.MoodDetection{
		Status: model.MoodResolved,
		Moods:  moods,
	}
}

// remapMoods 把词表外的情绪词重映射到词表内最接近的标签
// 每个输入词对应一个输出词；LLM 返回了词表外的词就替换为 neutral
func (s *MoodService) remapMoods(ctx context.Context, unknown []string) []string {
	raw, err := s.llm.GenerateText(ctx, s.remapPrompt(unknown))
	if err != nil {
		log.Printf("[Mood] 情绪重映射调用失败: %v", err)
		return neutralSlice(len(unknown))
	}

	// 模型偶尔会输出方括号或引号，先清掉再分词
	cleaned := strings.NewReplacer("[", "", "]", "", "'", "", `"`, "").Replace(raw)
	parts := strings.Split(cleaned, ",")

	mapped := make([]string, 0, len(unknown))
	for _, part := range parts {
		label := strings.ToLower(strings.TrimSpace(part))
		if label == "" {
			continue
		}
		if !s.vocab.Contains(label) {
			label = NeutralMood
		}
		mapped = append(mapped, label)
		if len(mapped) == len(unknown) {
			break
		}
	}

	// 数量不符时用 neutral 补齐
	for len(mapped) < len(unknown) {
		mapped = append(mapped, NeutralMood)
	}

	return mapped
}

func (s *MoodService) detectPrompt(userInput string) string {
	return fmt.Sprintf(`Analyze the following user input and detect the user's mood.

User input: %q

The canonical mood vocabulary is: %s

If the input is related to any emotional state, respond with a valid JSON object:
{"detected_moods": [exactly 3 different mood words that best describe the input], "extracted_words": [the key words you identified in the input]}

If the input is COMPLETELY NOT related to a mood (e.g., "What time is it?"), respond with:
{"detected_moods": ["invalid"], "extracted_words": []}

Output only valid JSON and nothing else.

Example:
User input: "I feel a bit lost and unsure what to do."
Response:
{"detected_moods": ["melancholic", "uncertain", "conflicted"], "extracted_words": ["lost", "unsure"]}`,
		userInput, s.vocab.Join(", "))
}

func (s *MoodService) remapPrompt(unknown []string) string {
	return fmt.Sprintf(`You are an expert in understanding human emotions.
Map each of the detected moods "%s" to the single closest valid mood from this list:

%s

Rules:
1. Return exactly one mood per input word, in the same order.
2. If a word has no defensible match in the list, use "neutral".
3. Return ONLY a comma-separated list of moods, no extra text.`,
		strings.Join(unknown, ", "), s.vocab.Join(", "))
}

// normalizeMoods 去重（保留首次出现顺序）、右侧补 neutral、截断到 3 个
func normalizeMoods(moods []string) []string {
	seen := make(map[string]struct{}, len(moods))
	result := make([]string, 0, 3)
	for _, mood := range moods {
		if _, ok := seen[mood]; ok {
			continue
		}
		seen[mood] = struct{}{}
		result = append(result, mood)
		if len(result) == 3 {
			return result
		}
	}
	for len(result) < 3 {
		result = append(result, NeutralMood)
	}
	return result
}

func neutralDetection() model.MoodDetection {
	return model.MoodDetection{
		Status: model.MoodResolved,
		Moods:  neutralSlice(3),
	}
}

func neutralSlice(n int) []string {
	moods := make([]string, n)
	for i := range moods {
		moods[i] = NeutralMood
	}
	return moods
}

func isAllNeutral(moods []string) bool {
	for _, mood := range moods {
		if mood != NeutralMood {
			return false
		}
	}
	return len(moods) > 0
}

func cleanWords(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			result = append(result, w)
		}
	}
	return result
}
