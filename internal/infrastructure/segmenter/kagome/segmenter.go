// Package kagome provides a local morphological Segmenter used to derive
// kana readings when the remote model omits them.
package kagome

import (
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"

	"github.com/karuta/ankigen/internal/domain/entities"
)

// Segmenter implements ports.Segmenter using the kagome IPA dictionary.
type Segmenter struct {
	t *tokenizer.Tokenizer
}

// NewSegmenter creates a tokenizer backed by the embedded IPA dictionary.
func NewSegmenter() (*Segmenter, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, err
	}
	return &Segmenter{t: t}, nil
}

// readingFeature is the IPA feature index carrying the katakana reading.
const readingFeature = 7

// Reading returns the hiragana reading of text, or "" when the dictionary
// has no reading for one of its tokens.
func (s *Segmenter) Reading(text string) string {
	if text == "" {
		return ""
	}
	if entities.IsKana(text) {
		return katakanaToHiragana(text)
	}

	var b strings.Builder
	for _, token := range s.t.Tokenize(text) {
		if token.Class == tokenizer.DUMMY || strings.TrimSpace(token.Surface) == "" {
			continue
		}
		features := token.Features()
		if len(features) <= readingFeature || features[readingFeature] == "*" {
			return ""
		}
		b.WriteString(features[readingFeature])
	}
	return katakanaToHiragana(b.String())
}

// katakanaToHiragana converts katakana runes to hiragana, leaving the
// prolonged sound mark and anything else untouched.
func katakanaToHiragana(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 'ァ' && r <= 'ヶ' {
			r -= 'ァ' - 'ぁ'
		}
		b.WriteRune(r)
	}
	return b.String()
}
