package vectorizer

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Tokenizer splits text into lowercase word terms using the bleve analysis chain:
// unicode word segmentation (punctuation is dropped), lowercasing, and an optional
// English stop-word filter. It holds no mutable state and is safe for concurrent use.
type Tokenizer struct {
	words     analysis.Tokenizer
	lower     analysis.TokenFilter
	stopWords analysis.TokenFilter // nil when stop words are kept
}

// NewTokenizer returns a tokenizer. When stopWords is true, English stop words are removed.
func NewTokenizer(stopWords bool) *Tokenizer {
	t := &Tokenizer{
		words: unicode.NewUnicodeTokenizer(),
		lower: lowercase.NewLowerCaseFilter(),
	}
	if stopWords {
		t.stopWords = stop.NewStopTokensFilter(englishStopWords())
	}
	return t
}

func englishStopWords() analysis.TokenMap {
	tokens := analysis.NewTokenMap()
	// The embedded list is well-formed; a load error would leave the map empty.
	_ = tokens.LoadBytes(en.EnglishStopWords)
	return tokens
}

// StopWords reports whether the tokenizer removes stop words.
func (t *Tokenizer) StopWords() bool {
	return t.stopWords != nil
}

// Tokens returns the terms of text in order of appearance, duplicates included.
func (t *Tokenizer) Tokens(text string) []string {
	stream := t.lower.Filter(t.words.Tokenize([]byte(text)))
	if t.stopWords != nil {
		stream = t.stopWords.Filter(stream)
	}
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		out = append(out, string(tok.Term))
	}
	return out
}

// UniqueTokens returns the distinct terms of text in order of first appearance.
func (t *Tokenizer) UniqueTokens(text string) []string {
	tokens := t.Tokens(text)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// HasWords reports whether text contains at least one word, ignoring the stop-word filter.
func (t *Tokenizer) HasWords(text string) bool {
	return len(t.words.Tokenize([]byte(text))) > 0
}
