package ports

// Segmenter provides local morphological analysis, used as a fallback when
// the remote model omits a reading for a candidate.
type Segmenter interface {
	// Reading returns the hiragana reading of text, or "" if the
	// dictionary has no entry for it.
	Reading(text string) string
}
