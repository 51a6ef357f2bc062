package service

import (
	"context"
	"strings"
)

// TextGenerator 文本生成接口（生产环境为 Gemini，测试时注入假实现）
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Embedder 文本向量接口（生产环境为 Ollama）
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// extractJSON 剥离 LLM 输出中常见的 Markdown 代码围栏，返回裸 JSON 文本
// 模型偶尔会在 JSON 前后加 ```json ... ``` 或说明文字，这里只取第一个
// '{' 或 '[' 到与之配对的末尾部分
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '[' {
		end = strings.LastIndex(s, "]")
	} else {
		end = strings.LastIndex(s, "}")
	}
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}
