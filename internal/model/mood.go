package model

// MoodStatus 情绪识别结果的状态
type MoodStatus string

const (
	// MoodInvalid 输入与任何情绪无关
	MoodInvalid MoodStatus = "invalid"
	// MoodResolved 成功解析出 3 个词表内的情绪词
	MoodResolved MoodStatus = "resolved"
	// MoodAmbiguous 无法确定情绪（3 个 neutral），但提取到了关键词
	MoodAmbiguous MoodStatus = "ambiguous"
)

// MoodDetection 情绪识别结果
// Resolved/Ambiguous 时 Moods 恒为 3 个词表内标签，不足时用 neutral 补齐
type MoodDetection struct {
	Status   MoodStatus `json:"status"`
	Moods    []string   `json:"moods,omitempty"`
	Keywords []string   `json:"keywords,omitempty"`
}
