package entities

// WordCandidate is a word surfaced by the extraction call, before analysis.
// Field names mirror the JSON contract with the remote model.
type WordCandidate struct {
	Word         string   `json:"word"`
	Kana         string   `json:"kana"`
	Pitch        string   `json:"pitch"`
	PartOfSpeech []string `json:"part_of_speech"`
}

// GrammarCandidate is a grammar point surfaced by the extraction call.
type GrammarCandidate struct {
	Grammar string `json:"grammar"`
	Kana    string `json:"kana"`
}

// Extraction is the ephemeral batch of candidates produced from one source
// text. It is never persisted; each candidate is analyzed and stored (or
// abandoned) individually.
type Extraction struct {
	Words   []WordCandidate    `json:"words"`
	Grammar []GrammarCandidate `json:"grammar"`
}

// Empty reports whether extraction produced no candidates at all.
func (e *Extraction) Empty() bool {
	return len(e.Words) == 0 && len(e.Grammar) == 0
}
