package ranking

import (
	"testing"
)

func TestDominantCategory(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{"empty", nil, GeneralCategory},
		{"single", []string{"A"}, "A"},
		{"priority wins over order", []string{"A", "K"}, "K"},
		{"P before C", []string{"C", "P"}, "P"},
		{"unknown codes sorted", []string{"Z", "X"}, "X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantCategory(tt.types, DefaultCategoryPriority); got != tt.want {
				t.Errorf("DominantCategory(%v) = %q, want %q", tt.types, got, tt.want)
			}
		})
	}
}

func TestCategoryLimit(t *testing.T) {
	tests := []struct {
		k    int
		cap  float64
		want int
	}{
		{10, 0.6, 6},
		{5, 0.6, 3},
		{1, 0.6, 0},
		{3, 0.6, 1},
		{10, 0, 0},
		{10, 1, 10},
	}
	for _, tt := range tests {
		if got := CategoryLimit(tt.k, tt.cap); got != tt.want {
			t.Errorf("CategoryLimit(%d, %v) = %d, want %d", tt.k, tt.cap, got, tt.want)
		}
	}
}

func rankedFixture(cats []string) ([]Scored, func(int) string) {
	ranked := make([]Scored, len(cats))
	for i := range cats {
		score := 1 - float64(i)*0.05
		ranked[i] = Scored{Index: i, ID: string(rune('a' + i)), Score: score, Boosted: score}
	}
	return ranked, func(i int) string { return cats[i] }
}

func TestBalance_CapsDominantCategory(t *testing.T) {
	cats := []string{"K", "K", "K", "K", "K", "K", "K", "K", "P", "A", "B", "C"}
	ranked, category := rankedFixture(cats)

	got := Balance(ranked, 10, 0.6, category)
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	counts := map[string]int{}
	for _, s := range got {
		counts[category(s.Index)]++
	}
	if counts["K"] != 6 {
		t.Errorf("K count = %d, want 6", counts["K"])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Boosted > got[i-1].Boosted {
			t.Fatalf("not sorted at %d", i)
		}
	}
}

func TestBalance_SecondPassFills(t *testing.T) {
	// Only one category exists, so the cap is relaxed to still return K results.
	ranked, category := rankedFixture([]string{"K", "K", "K", "K", "K"})
	got := Balance(ranked, 5, 0.6, category)
	if len(got) != 5 {
		t.Fatalf("len = %d, want 5", len(got))
	}
	for i, s := range got {
		if s.Index != i {
			t.Errorf("got[%d].Index = %d, want %d", i, s.Index, i)
		}
	}
}

func TestBalance_ZeroCap(t *testing.T) {
	ranked, category := rankedFixture([]string{"K", "P", "A"})
	got := Balance(ranked, 2, 0, category)
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestBalance_FullCapIsPlainTopK(t *testing.T) {
	ranked, category := rankedFixture([]string{"K", "K", "K", "P"})
	got := Balance(ranked, 3, 1, category)
	for i, s := range got {
		if s.Index != i {
			t.Errorf("got[%d].Index = %d, want %d", i, s.Index, i)
		}
	}
}

func TestBalance_KLargerThanCorpus(t *testing.T) {
	ranked, category := rankedFixture([]string{"K", "P"})
	if got := Balance(ranked, 10, 0.6, category); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := Balance(ranked, 0, 0.6, category); got != nil {
		t.Errorf("k=0: got %v, want nil", got)
	}
}

func TestBalance_PromotesLowerCategory(t *testing.T) {
	// K=2 gives a cap of 1: the best P document displaces the second K.
	ranked, category := rankedFixture([]string{"K", "K", "P"})
	got := Balance(ranked, 2, 0.6, category)
	if got[0].Index != 0 || got[1].Index != 2 {
		t.Errorf("got indices %d,%d want 0,2", got[0].Index, got[1].Index)
	}
}

func BenchmarkBalance(b *testing.B) {
	codes := []string{"K", "P", "A", "C"}
	ranked := make([]Scored, 400)
	for i := range ranked {
		ranked[i] = Scored{Index: i, ID: string(rune('a' + i%26)), Boosted: float64(400-i) / 400}
	}
	category := func(i int) string { return codes[i%7%len(codes)] }
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Balance(ranked, 10, 0.6, category)
	}
}
