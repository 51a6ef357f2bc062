package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "裸JSON原样返回",
			raw:  `{"detected_moods": ["happy"]}`,
			want: `{"detected_moods": ["happy"]}`,
		},
		{
			name: "剥离json代码围栏",
			raw:  "```json\n[{\"index\": 1}]\n```",
			want: `[{"index": 1}]`,
		},
		{
			name: "剥离无语言标记的围栏",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "丢弃JSON前后的说明文字",
			raw:  "Sure, here is the result: [1, 2, 3] Hope it helps!",
			want: "[1, 2, 3]",
		},
		{
			name: "无JSON时原样返回",
			raw:  "I cannot answer that.",
			want: "I cannot answer that.",
		},
		{
			name: "嵌套数组取到最外层",
			raw:  `[{"index": 1, "tags": ["a", "b"]}]`,
			want: `[{"index": 1, "tags": ["a", "b"]}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.raw))
		})
	}
}
