package vectorizer

import (
	"reflect"
	"testing"
)

func TestTokenizer_Tokens(t *testing.T) {
	tests := []struct {
		name      string
		stopWords bool
		text      string
		want      []string
	}{
		{"lowercases and strips punctuation", false, "Hello, World!", []string{"hello", "world"}},
		{"keeps duplicates", false, "java Java JAVA", []string{"java", "java", "java"}},
		{"keeps numbers", false, "360 feedback", []string{"360", "feedback"}},
		{"removes stop words", true, "the java and the python", []string{"java", "python"}},
		{"keeps stop words when disabled", false, "the java", []string{"the", "java"}},
		{"empty", true, "   ", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTokenizer(tt.stopWords).Tokens(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizer_UniqueTokens(t *testing.T) {
	got := NewTokenizer(false).UniqueTokens("b a b c a")
	want := []string{"b", "a", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("UniqueTokens = %v, want %v", got, want)
	}
}

func TestTokenizer_HasWords(t *testing.T) {
	tok := NewTokenizer(true)
	if tok.HasWords("  ... !!! ") {
		t.Error("punctuation only should have no words")
	}
	if !tok.HasWords("the") {
		t.Error("a stop word is still a word")
	}
	if !tok.StopWords() {
		t.Error("expected stop words enabled")
	}
}
