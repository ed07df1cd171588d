package kagome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karuta/ankigen/internal/domain/entities"
)

func TestSegmenter_Reading(t *testing.T) {
	s, err := NewSegmenter()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "common kanji word",
			input:    "日本語",
			expected: "にほんご",
		},
		{
			name:     "verb in dictionary form",
			input:    "食べる",
			expected: "たべる",
		},
		{
			name:     "kana passes through as hiragana",
			input:    "コーヒー",
			expected: "こーひー",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Reading(tt.input))
		})
	}
}

func TestSegmenter_ReadingIsKana(t *testing.T) {
	s, err := NewSegmenter()
	require.NoError(t, err)

	got := s.Reading("勉強")
	require.NotEmpty(t, got)
	assert.True(t, entities.IsKana(got), "derived readings must be kana")
}

func TestKatakanaToHiragana(t *testing.T) {
	assert.Equal(t, "たべる", katakanaToHiragana("タベル"))
	assert.Equal(t, "こーひー", katakanaToHiragana("コーヒー"))
	assert.Equal(t, "すでにひらがな", katakanaToHiragana("すでにひらがな"))
}
