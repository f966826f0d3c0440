package catalog

import (
	"testing"

	"github.com/hyperjump/suisen/internal/models"
)

func sampleDocs() []models.AssessmentDocument {
	return []models.AssessmentDocument{
		{Name: "Core Java", Description: "java programming test", URL: "https://www.shl.com/solutions/products/product-catalog/view/core-java/", TestType: []string{"K"}},
		{ID: "opq", Name: "OPQ32r", Description: "personality questionnaire", URL: "https://www.shl.com/solutions/products/product-catalog/view/occupational-personality-questionnaire-opq32r/", TestType: []string{"P"}},
		{Name: "Empty", Description: "  ", URL: "https://x/view/empty/"},
		{Name: "", Description: "no name", URL: "https://x/view/noname/"},
		{Name: "Core Java Copy", Description: "duplicate", URL: "https://x/view/core-java/"},
	}
}

func TestNewStore(t *testing.T) {
	s, stats := NewStore(sampleDocs())
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	want := StoreStats{Input: 5, Loaded: 2, EmptyDescription: 1, MissingField: 1, DuplicateID: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if stats.Skipped() != 3 {
		t.Errorf("Skipped() = %d, want 3", stats.Skipped())
	}
	if s.At(0).ID != "core-java" {
		t.Errorf("derived id = %q, want core-java", s.At(0).ID)
	}
	if d, ok := s.Get("opq"); !ok || d.Name != "OPQ32r" {
		t.Errorf("Get(opq) = %v, %v", d, ok)
	}
}

func TestNewStore_CopiesInput(t *testing.T) {
	docs := sampleDocs()
	s, _ := NewStore(docs)
	docs[0].TestType[0] = "X"
	if s.At(0).TestType[0] != "K" {
		t.Error("store shares test-type slice with caller")
	}
	out := s.Documents()
	out[0].Name = "changed"
	if s.At(0).Name != "Core Java" {
		t.Error("Documents() returned shared storage")
	}
}

func TestStore_Resolve(t *testing.T) {
	s, _ := NewStore(sampleDocs())
	tests := []struct {
		ref  string
		want int
		ok   bool
	}{
		{"core-java", 0, true},
		{"opq", 1, true},
		{"https://www.shl.com/products/product-catalog/view/core-java", 0, true},
		{"https://www.shl.com/solutions/products/product-catalog/view/Occupational-Personality-Questionnaire-OPQ32r/", 1, true},
		{"core java", 0, true},
		{"opq32R", 1, true},
		{"unknown", 0, false},
		{"   ", 0, false},
	}
	for _, tt := range tests {
		got, ok := s.Resolve(tt.ref)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("Resolve(%q) = %d, %v; want %d, %v", tt.ref, got, ok, tt.want, tt.ok)
		}
	}
}
