package features

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-nlp/tfidf"

	"sentiment-analysis-service/internal/domain"
)

// vectorizerState is the on-disk form of a fitted vectorizer. IDF weights
// and corpus counters are enough to reproduce Score; raw document
// frequencies are not persisted.
type vectorizerState struct {
	Options Options         `json:"options"`
	Terms   []string        `json:"terms"`
	IDF     map[int]float64 `json:"idf"`
	Docs    int             `json:"docs"`
	Len     int             `json:"len"`
}

// Save writes the fitted vectorizer as JSON.
func (v *Vectorizer) Save(path string) error {
	if v.model == nil {
		return domain.ErrVectorizerNotFitted
	}

	state := vectorizerState{
		Options: v.opts,
		Terms:   v.terms,
		IDF:     v.model.IDF,
		Docs:    v.model.Docs,
		Len:     v.model.Len,
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vectorizer: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vectorizer: %w", err)
	}
	return nil
}

// LoadVectorizer reads a vectorizer saved by Save.
func LoadVectorizer(path string) (*Vectorizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vectorizer: %w", err)
	}

	var state vectorizerState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse vectorizer: %w", err)
	}
	if len(state.Terms) == 0 {
		return nil, domain.ErrEmptyVocabulary
	}

	v := &Vectorizer{
		opts:  state.Options,
		terms: state.Terms,
		vocab: make(map[string]int, len(state.Terms)),
		model: &tfidf.TFIDF{
			TF:   make(map[int]float64),
			IDF:  state.IDF,
			Docs: state.Docs,
			Len:  state.Len,
		},
	}
	for i, tok := range state.Terms {
		v.vocab[tok] = i
	}
	return v, nil
}
