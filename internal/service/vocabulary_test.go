package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoodVocabulary(t *testing.T) {
	v := NewMoodVocabulary()

	require.Greater(t, v.Len(), 100, "词表应包含全部语义族的标签")
	assert.True(t, v.Contains("neutral"))
	assert.True(t, v.Contains("happy"))
	assert.True(t, v.Contains("melancholic"))
	assert.True(t, v.Contains("deep in thought"))
	assert.False(t, v.Contains("euphoric"))
	assert.False(t, v.Contains(""))
}

func TestMoodVocabularyLowercaseLookup(t *testing.T) {
	v := NewMoodVocabulary()

	assert.True(t, v.Contains("HAPPY"))
	assert.True(t, v.Contains("  Joyful  "))
}

func TestMoodVocabularyUniqueLabels(t *testing.T) {
	v := NewMoodVocabulary()

	// indifferent 在 sadness 和 neutrality 两族都出现，构建时按首次出现去重
	seen := make(map[string]int)
	for _, label := range v.Labels() {
		seen[label]++
	}
	for label, count := range seen {
		assert.Equal(t, 1, count, "标签 %q 重复出现", label)
	}
}

func TestMoodVocabularyJoin(t *testing.T) {
	v := NewMoodVocabulary()

	joined := v.Join(", ")
	assert.Equal(t, v.Len(), len(strings.Split(joined, ", ")))
	assert.Contains(t, joined, "neutral")
}
