// Package features turns normalized text into the fixed-width TF-IDF
// vectors the classifier consumes. Scoring is delegated to go-nlp/tfidf;
// this package owns the vocabulary, the matrix layout and the artifact
// format, so that a vectorizer fitted at training time reproduces the exact
// same columns at serving time.
package features

import (
	"fmt"
	"sort"

	"github.com/go-nlp/tfidf"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"sentiment-analysis-service/internal/domain"
	"sentiment-analysis-service/internal/textproc"
)

type Options struct {
	// MaxFeatures caps the vocabulary at the N most document-frequent
	// tokens. 0 means no cap.
	MaxFeatures int `json:"max_features"`
	// MinDocFreq drops tokens that appear in fewer documents than this.
	MinDocFreq int `json:"min_doc_freq"`
}

func DefaultOptions() Options {
	return Options{MaxFeatures: 5000, MinDocFreq: 2}
}

// Vectorizer maps texts to rows of a dense TF-IDF matrix. The zero value is
// not usable; construct with NewVectorizer and Fit, or LoadVectorizer.
type Vectorizer struct {
	opts  Options
	vocab map[string]int
	terms []string
	model *tfidf.TFIDF
}

func NewVectorizer(opts Options) *Vectorizer {
	return &Vectorizer{opts: opts}
}

// document adapts a token-id slice to the scorer's input.
type document []int

func (d document) IDs() []int { return d }

// Fit builds the vocabulary from the corpus and computes IDF weights.
func (v *Vectorizer) Fit(texts []string) error {
	docFreq := make(map[string]int)
	tokenized := make([][]string, len(texts))
	for i, text := range texts {
		tokens := textproc.Tokenize(text)
		tokenized[i] = tokens
		for _, tok := range uniqueTokens(tokens) {
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for tok, df := range docFreq {
		if v.opts.MinDocFreq > 0 && df < v.opts.MinDocFreq {
			continue
		}
		terms = append(terms, tok)
	}
	if len(terms) == 0 {
		return domain.ErrEmptyVocabulary
	}

	if v.opts.MaxFeatures > 0 && len(terms) > v.opts.MaxFeatures {
		// keep the most frequent tokens; ties broken lexicographically so
		// fitting is deterministic
		sort.Slice(terms, func(i, j int) bool {
			if docFreq[terms[i]] != docFreq[terms[j]] {
				return docFreq[terms[i]] > docFreq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.opts.MaxFeatures]
	}
	sort.Strings(terms)

	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	for i, tok := range terms {
		v.vocab[tok] = i
	}

	v.model = tfidf.New()
	for _, tokens := range tokenized {
		if ids := v.tokenIDs(tokens); len(ids) > 0 {
			v.model.Add(document(ids))
		}
	}
	v.model.CalculateIDF()
	return nil
}

// Transform vectorizes texts into a dense matrix of one L2-normalized row
// per text. Tokens outside the vocabulary contribute nothing; a text with no
// known tokens becomes a zero row.
func (v *Vectorizer) Transform(texts []string) (*mat.Dense, error) {
	if v.model == nil {
		return nil, domain.ErrVectorizerNotFitted
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("transform: no texts given")
	}

	out := mat.NewDense(len(texts), len(v.terms), nil)
	for i, text := range texts {
		row, err := v.TransformOne(text)
		if err != nil {
			return nil, err
		}
		out.SetRow(i, row)
	}
	return out, nil
}

// TransformOne vectorizes a single text into a feature row.
func (v *Vectorizer) TransformOne(text string) ([]float64, error) {
	if v.model == nil {
		return nil, domain.ErrVectorizerNotFitted
	}

	row := make([]float64, len(v.terms))
	ids := v.tokenIDs(textproc.Tokenize(text))
	if len(ids) == 0 {
		return row, nil
	}

	scores := v.model.Score(document(ids))
	for i, id := range ids {
		row[id] = scores[i]
	}
	if norm := floats.Norm(row, 2); norm > 0 {
		floats.Scale(1/norm, row)
	}
	return row, nil
}

func (v *Vectorizer) tokenIDs(tokens []string) []int {
	ids := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		if id, ok := v.vocab[tok]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// VocabularySize returns the width of transformed rows.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Vocabulary returns the terms in column order.
func (v *Vectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func uniqueTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
