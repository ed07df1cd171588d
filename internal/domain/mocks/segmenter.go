package mocks

// Segmenter is a mock implementation of ports.Segmenter backed by a
// fixed lookup table.
type Segmenter struct {
	Readings map[string]string
}

// Reading returns the configured reading for text, or "".
func (s *Segmenter) Reading(text string) string {
	return s.Readings[text]
}
