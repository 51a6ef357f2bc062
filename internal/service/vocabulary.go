package service

import "strings"

// NeutralMood 兜底情绪标签：识别结果不足 3 个时用它补齐，
// 三个全是它则表示低置信识别
const NeutralMood = "neutral"

// MoodFamily 情绪语义族，仅作组织信息，算法上不区分
type MoodFamily struct {
	Name   string
	Labels []string
}

// moodFamilies 规范情绪词表，按语义族分组
// 注意个别词跨族出现（如 indifferent），构建词表时按首次出现去重
var moodFamilies = []MoodFamily{
	{
		Name: "joy",
		Labels: []string{
			"happy", "joyful", "cheerful", "delighted", "gleeful", "content", "lighthearted", "beaming",
			"excited", "thrilled", "exhilarated", "ecstatic", "overjoyed", "pumped", "hyped", "giddy",
			"grateful", "thankful", "appreciative", "blessed", "fulfilled", "satisfied",
			"hopeful", "optimistic", "encouraged", "expectant", "inspired",
			"loving", "affectionate", "romantic", "caring", "devoted", "tender",
			"peaceful", "calm", "serene", "tranquil", "relaxed", "mellow",
			"proud", "accomplished", "confident", "empowered", "self-assured",
		},
	},
	{
		Name: "sadness",
		Labels: []string{
			"sad", "melancholic", "gloomy", "heartbroken", "dejected", "sorrowful",
			"lonely", "isolated", "abandoned", "rejected", "homesick", "neglected",
			"hopeless", "despairing", "pessimistic", "defeated", "discouraged",
			"bored", "indifferent", "unenthusiastic", "unstimulated", "listless",
			"guilty", "remorseful", "regretful", "ashamed", "embarrassed",
			"tired", "fatigued", "drained", "exhausted", "sluggish",
		},
	},
	{
		Name: "anger",
		Labels: []string{
			"angry", "furious", "enraged", "irritated", "resentful", "bitter",
			"frustrated", "annoyed", "exasperated", "impatient", "aggravated",
			"jealous", "envious", "covetous", "possessive", "insecure",
			"disgusted", "repulsed", "revolted", "grossed out", "nauseated",
		},
	},
	{
		Name: "fear",
		Labels: []string{
			"anxious", "nervous", "worried", "uneasy", "apprehensive", "jittery",
			"fearful", "terrified", "panicked", "paranoid", "tense", "alarmed",
			"overwhelmed", "stressed", "pressured", "frazzled", "overloaded",
		},
	},
	{
		Name: "surprise",
		Labels: []string{
			"surprised", "shocked", "amazed", "astonished", "stunned", "flabbergasted",
			"confused", "perplexed", "puzzled", "disoriented", "unsure", "uncertain",
			"indecisive", "conflicted", "hesitant", "torn", "ambivalent",
		},
	},
	{
		Name: "neutrality",
		Labels: []string{
			"neutral", "indifferent", "meh", "emotionless", "numb",
			"bittersweet", "nostalgic", "wistful", "sentimental", "pensive",
			"thoughtful", "introspective", "brooding", "deep in thought",
		},
	},
}

// MoodVocabulary 规范情绪词表：有序、去重、全小写
// 进程内只构建一次，之后只读，无需加锁
type MoodVocabulary struct {
	labels []string
	index  map[string]struct{}
}

// NewMoodVocabulary 从语义族定义构建词表
func NewMoodVocabulary() *MoodVocabulary {
	v := &MoodVocabulary{
		index: make(map[string]struct{}),
	}
	for _, family := range moodFamilies {
		for _, label := range family.Labels {
			label = strings.ToLower(strings.TrimSpace(label))
			if label == "" {
				continue
			}
			if _, exists := v.index[label]; exists {
				continue
			}
			v.index[label] = struct{}{}
			v.labels = append(v.labels, label)
		}
	}
	return v
}

// Contains 判断标签是否在词表内
func (v *MoodVocabulary) Contains(label string) bool {
	_, ok := v.index[strings.ToLower(strings.TrimSpace(label))]
	return ok
}

// Labels 返回全部标签（调用方不得修改）
func (v *MoodVocabulary) Labels() []string {
	return v.labels
}

// Join 把词表拼成提示词里的列表文本
func (v *MoodVocabulary) Join(sep string) string {
	return strings.Join(v.labels, sep)
}

// Len 词表长度
func (v *MoodVocabulary) Len() int {
	return len(v.labels)
}
