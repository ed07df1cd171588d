// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
	"unicode"
)

// Kind selects which table and deck file an entry belongs to.
type Kind string

const (
	KindWord    Kind = "word"
	KindGrammar Kind = "grammar"
)

// IsValid reports whether the kind is one of the known kinds.
func (k Kind) IsValid() bool {
	return k == KindWord || k == KindGrammar
}

// PartOfSpeechSep joins multiple part-of-speech labels in a single column.
const PartOfSpeechSep = "｜"

// Entry represents a persisted lexical entry: a word or a grammar point.
// Surface holds the dictionary form for words and the pattern string for
// grammar points. Pitch and PartOfSpeech are populated for words only.
type Entry struct {
	ID           int64     `json:"id"`
	Kind         Kind      `json:"kind"`
	Surface      string    `json:"surface"`
	Reading      string    `json:"reading"`
	Pitch        string    `json:"pitch,omitempty"`
	PartOfSpeech string    `json:"part_of_speech,omitempty"`
	Analysis     string    `json:"analysis"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// PartsOfSpeech splits the stored part-of-speech column into its labels.
func (e *Entry) PartsOfSpeech() []string {
	if e.PartOfSpeech == "" {
		return nil
	}
	return strings.Split(e.PartOfSpeech, PartOfSpeechSep)
}

// JoinPartsOfSpeech combines labels into the stored column format,
// dropping empty and duplicate labels while preserving order.
func JoinPartsOfSpeech(labels []string) string {
	seen := make(map[string]bool, len(labels))
	merged := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		merged = append(merged, l)
	}
	return strings.Join(merged, PartOfSpeechSep)
}

// IsKana reports whether s consists entirely of kana (hiragana, katakana,
// the prolonged sound mark and iteration marks). A surface that is already
// kana needs no separate reading.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			continue
		}
		switch r {
		case 'ー', '・', 'ゝ', 'ゞ', 'ヽ', 'ヾ':
			continue
		}
		return false
	}
	return true
}
