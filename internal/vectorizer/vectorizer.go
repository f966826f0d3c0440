// Package vectorizer builds TF-IDF models over a document corpus and turns text
// into L2-normalized sparse term vectors.
package vectorizer

import (
	"errors"
	"math"
	"sort"

	"github.com/hyperjump/suisen/internal/vector"
)

// ErrNotFitted is returned by Transform when Fit has not completed.
var ErrNotFitted = errors.New("vectorizer is not fitted")

// ErrNoDocuments is returned by Fit for an empty corpus.
var ErrNoDocuments = errors.New("cannot fit vectorizer on an empty corpus")

// Vectorizer holds a vocabulary and an inverse document frequency per term.
// After Fit returns it is only read, so Transform may be called concurrently.
type Vectorizer struct {
	tokenizer *Tokenizer
	sublinear bool

	vocab   map[string]int
	terms   []string
	idf     []float64
	numDocs int
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithTokenizer sets the tokenizer used for both documents and queries.
func WithTokenizer(t *Tokenizer) Option {
	return func(v *Vectorizer) { v.tokenizer = t }
}

// WithSublinearTF replaces raw term frequency tf with 1 + ln(tf).
func WithSublinearTF(enabled bool) Option {
	return func(v *Vectorizer) { v.sublinear = enabled }
}

// New returns an unfitted vectorizer. The default tokenizer removes English stop words.
func New(opts ...Option) *Vectorizer {
	v := &Vectorizer{}
	for _, opt := range opts {
		opt(v)
	}
	if v.tokenizer == nil {
		v.tokenizer = NewTokenizer(true)
	}
	return v
}

// Tokenizer returns the tokenizer shared by documents and queries.
func (v *Vectorizer) Tokenizer() *Tokenizer {
	return v.tokenizer
}

// Fit builds the vocabulary and idf table from texts:
// idf(t) = ln((1 + N) / (1 + df(t))) + 1. Fitting the same corpus twice yields the same model.
func (v *Vectorizer) Fit(texts []string) error {
	if len(texts) == 0 {
		return ErrNoDocuments
	}
	df := make(map[string]int)
	for _, text := range texts {
		for _, term := range v.tokenizer.UniqueTokens(text) {
			df[term]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	n := float64(len(texts))
	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	v.vocab = vocab
	v.terms = terms
	v.idf = idf
	v.numDocs = len(texts)
	return nil
}

// Fitted reports whether Fit has completed.
func (v *Vectorizer) Fitted() bool {
	return v.vocab != nil
}

// Transform returns the normalized TF-IDF vector of text. Terms missing from the
// vocabulary are ignored; text with no known terms yields a zero vector.
func (v *Vectorizer) Transform(text string) (vector.Sparse, error) {
	if !v.Fitted() {
		return vector.Sparse{}, ErrNotFitted
	}
	tf := make(map[int]float64)
	for _, term := range v.tokenizer.Tokens(text) {
		if id, ok := v.vocab[term]; ok {
			tf[id]++
		}
	}
	for id, count := range tf {
		if v.sublinear {
			count = 1 + math.Log(count)
		}
		tf[id] = count * v.idf[id]
	}
	return vector.FromWeights(tf).Normalized(), nil
}

// FitTransform fits on texts and returns the vector of each text.
func (v *Vectorizer) FitTransform(texts []string) ([]vector.Sparse, error) {
	if err := v.Fit(texts); err != nil {
		return nil, err
	}
	out := make([]vector.Sparse, len(texts))
	for i, text := range texts {
		vec, err := v.Transform(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// VocabularySize returns the number of distinct terms seen at fit time.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// NumDocs returns the corpus size used at fit time.
func (v *Vectorizer) NumDocs() int {
	return v.numDocs
}

// IDF returns the idf weight of term and whether it is in the vocabulary.
func (v *Vectorizer) IDF(term string) (float64, bool) {
	id, ok := v.vocab[term]
	if !ok {
		return 0, false
	}
	return v.idf[id], true
}

// Term returns the vocabulary term with the given id.
func (v *Vectorizer) Term(id int) string {
	return v.terms[id]
}
