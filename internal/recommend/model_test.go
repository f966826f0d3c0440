package recommend

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/internal/ranking"
)

func exampleDocs() []models.AssessmentDocument {
	return []models.AssessmentDocument{
		{ID: "a", Name: "Java Programming Test", Description: "java programming test", URL: "https://x/view/a/", TestType: []string{"K"}},
		{ID: "b", Name: "Selenium Automation Test", Description: "selenium automation test", URL: "https://x/view/b/", TestType: []string{"A"}},
		{ID: "c", Name: "Leadership Personality Assessment", Description: "leadership personality assessment", URL: "https://x/view/c/", TestType: []string{"P"}},
	}
}

func ids(results []models.RankedResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Document.ID
	}
	return out
}

func mustBuild(t testing.TB, docs []models.AssessmentDocument, training []models.TrainingAssociation, opts ...Option) *Model {
	t.Helper()
	m, err := BuildIndex(docs, training, opts...)
	if err != nil {
		t.Fatalf("BuildIndex: %v", err)
	}
	return m
}

func TestRecommend_EndToEnd(t *testing.T) {
	m := mustBuild(t, exampleDocs(), nil)

	got, err := Recommend(m, "Java developer", 10)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	for i, r := range got {
		if r.Rank != i+1 {
			t.Errorf("got[%d].Rank = %d", i, r.Rank)
		}
	}
	if got[0].Score <= 0 {
		t.Errorf("top score = %v, want > 0", got[0].Score)
	}

	got, err = m.Recommend("Java developer", 2)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("top_k=2 ids = %v, want %v", ids(got), want)
	}
}

func TestRecommend_LengthIsMinOfKAndCorpus(t *testing.T) {
	m := mustBuild(t, exampleDocs(), nil)
	for _, k := range []int{1, 2, 3, 4, 50} {
		got, err := m.Recommend("assessment", k)
		if err != nil {
			t.Fatalf("k=%d: %v", k, err)
		}
		want := k
		if want > 3 {
			want = 3
		}
		if len(got) != want {
			t.Errorf("k=%d: len = %d, want %d", k, len(got), want)
		}
	}
}

func TestRecommend_Errors(t *testing.T) {
	m := mustBuild(t, exampleDocs(), nil)
	tests := []struct {
		name  string
		model *Model
		query string
		topK  int
		want  error
	}{
		{"nil model", nil, "java", 10, ErrNotFitted},
		{"unbuilt model", &Model{}, "java", 10, ErrNotFitted},
		{"whitespace query", m, "   \t\n", 10, ErrEmptyQuery},
		{"punctuation only", m, "?!...", 10, ErrEmptyQuery},
		{"zero top_k", m, "java", 0, ErrInvalidTopK},
		{"negative top_k", m, "java", -3, ErrInvalidTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Recommend(tt.model, tt.query, tt.topK)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRecommend_OutOfVocabularyQuery(t *testing.T) {
	m := mustBuild(t, exampleDocs(), nil)
	got, err := m.Recommend("zzzz qqqq", 3)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
	for _, r := range got {
		if r.Score != 0 {
			t.Errorf("%s score = %v, want 0", r.Document.ID, r.Score)
		}
	}
}

func TestRecommend_Deterministic(t *testing.T) {
	m1 := mustBuild(t, exampleDocs(), nil)
	m2 := mustBuild(t, exampleDocs(), nil)
	first, _ := m1.Recommend("test assessment automation", 3)
	for i := 0; i < 5; i++ {
		again, _ := m2.Recommend("test assessment automation", 3)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %v vs %v", i, ids(first), ids(again))
		}
	}
}

func TestRecommend_ScalingTermCountsKeepsRank(t *testing.T) {
	base := []models.AssessmentDocument{
		{ID: "x", Name: "java test", Description: "java test", URL: "https://x/view/x/"},
		{ID: "y", Name: "python", Description: "python scripting", URL: "https://x/view/y/"},
		{ID: "z", Name: "java spring", Description: "spring boot java", URL: "https://x/view/z/"},
	}
	scaled := append([]models.AssessmentDocument(nil), base...)
	scaled[0].Description = "java test java test java test"

	opts := []Option{WithNameWeight(1), WithTestTypeExpansion(false)}
	a, _ := mustBuild(t, base, nil, opts...).Recommend("java test", 3)
	b, _ := mustBuild(t, scaled, nil, opts...).Recommend("java test", 3)

	if !reflect.DeepEqual(ids(a), ids(b)) {
		t.Fatalf("ranking changed: %v vs %v", ids(a), ids(b))
	}
	if math.Abs(a[0].Score-b[0].Score) > 1e-12 {
		t.Errorf("score changed: %v vs %v", a[0].Score, b[0].Score)
	}
}

func TestRecommend_CategoryCap(t *testing.T) {
	var docs []models.AssessmentDocument
	add := func(prefix, code string, n int) {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("%s-%02d", prefix, i)
			docs = append(docs, models.AssessmentDocument{
				ID: id, Name: "java " + id, Description: "java skills test " + id,
				URL: "https://x/view/" + id + "/", TestType: []string{code},
			})
		}
	}
	add("know", "K", 12)
	add("pers", "P", 3)
	add("abil", "A", 3)

	m := mustBuild(t, docs, nil)
	got, err := m.Recommend("java", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	counts := map[string]int{}
	for _, r := range got {
		counts[ranking.DominantCategory(r.Document.TestType, ranking.DefaultCategoryPriority)]++
	}
	for cat, n := range counts {
		if n > 6 {
			t.Errorf("category %s has %d results, cap is 6", cat, n)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].BoostedScore > got[i-1].BoostedScore {
			t.Errorf("results not sorted at %d", i)
		}
	}
}

func TestRecommend_BoostMonotonic(t *testing.T) {
	query := "leadership for java developer"
	plain := mustBuild(t, exampleDocs(), nil)
	trained := mustBuild(t, exampleDocs(), []models.TrainingAssociation{
		{Query: "java developer", Assessment: "https://x/view/c/"},
	})

	before, _ := plain.Recommend(query, 3)
	after, _ := trained.Recommend(query, 3)
	scores := func(rs []models.RankedResult) map[string]models.RankedResult {
		out := map[string]models.RankedResult{}
		for _, r := range rs {
			out[r.Document.ID] = r
		}
		return out
	}
	b, a := scores(before), scores(after)
	if a["c"].BoostedScore < b["c"].BoostedScore+0.5-1e-12 {
		t.Errorf("c boosted = %v, want >= %v", a["c"].BoostedScore, b["c"].BoostedScore+0.5)
	}
	for _, id := range []string{"a", "b"} {
		if a[id].BoostedScore != b[id].BoostedScore {
			t.Errorf("%s changed from %v to %v", id, b[id].BoostedScore, a[id].BoostedScore)
		}
	}
	if after[0].Document.ID != "c" {
		t.Errorf("top = %s, want c", after[0].Document.ID)
	}
}

func TestBuildIndex_EmptyCorpus(t *testing.T) {
	if _, err := BuildIndex(nil, nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("err = %v, want ErrEmptyCorpus", err)
	}
	invalid := []models.AssessmentDocument{{ID: "x", Name: "x", URL: "https://x/view/x/"}}
	if _, err := BuildIndex(invalid, nil); !errors.Is(err, ErrEmptyCorpus) {
		t.Errorf("err = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildIndex_InvalidConfig(t *testing.T) {
	cfg := ranking.DefaultConfig()
	cfg.CategoryCap = 1.5
	if _, err := BuildIndex(exampleDocs(), nil, WithRankingConfig(cfg)); err == nil {
		t.Error("expected error for category cap above 1")
	}
}

func TestModel_Stats(t *testing.T) {
	docs := append(exampleDocs(), models.AssessmentDocument{ID: "d", Name: "No description", URL: "https://x/view/d/"})
	training := []models.TrainingAssociation{
		{Query: "java developer", Assessment: "a"},
		{Query: "java developer", Assessment: "Selenium Automation Test"},
		{Query: "manager", Assessment: "https://x/view/missing/"},
	}
	m := mustBuild(t, docs, training)
	s := m.Stats()
	if s.Documents != 3 || s.SkippedDocuments != 1 {
		t.Errorf("documents = %d skipped = %d", s.Documents, s.SkippedDocuments)
	}
	if s.TrainingRows != 3 || s.MatchedTraining != 2 || s.UnmatchedTraining != 1 || s.TrainingQueries != 1 {
		t.Errorf("training stats = %+v", s)
	}
	if s.VocabularySize == 0 || s.BuiltAt.IsZero() {
		t.Errorf("stats = %+v", s)
	}
	if m.Size() != 3 {
		t.Errorf("Size() = %d", m.Size())
	}
	if d, ok := m.Document("https://x/view/b"); !ok || d.ID != "b" {
		t.Errorf("Document(url) = %v, %v", d, ok)
	}
}

func TestRecommend_EquivalentTrainingQueriesBoostOnce(t *testing.T) {
	tests := []struct {
		name    string
		variant string
	}{
		{"case variant", "Java Developer"},
		{"punctuation variant", "java, developer!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			training := []models.TrainingAssociation{
				{Query: "java developer", Assessment: "c"},
				{Query: tt.variant, Assessment: "c"},
			}
			m := mustBuild(t, exampleDocs(), training)
			results, err := m.Recommend("java developer", 3)
			if err != nil {
				t.Fatal(err)
			}
			for _, r := range results {
				if r.Document.ID != "c" {
					continue
				}
				if boost := r.BoostedScore - r.Score; math.Abs(boost-0.5) > 1e-9 {
					t.Errorf("boost of c = %v, want 0.5", boost)
				}
				return
			}
			t.Fatal("c missing from results")
		})
	}
}

func TestModel_Nil(t *testing.T) {
	var m *Model
	if _, err := m.Recommend("java", 3); !errors.Is(err, ErrNotFitted) {
		t.Errorf("err = %v, want ErrNotFitted", err)
	}
	if m.Size() != 0 || m.Documents() != nil || m.Stats().Documents != 0 {
		t.Error("nil model should be empty")
	}
	if _, ok := m.Document("a"); ok {
		t.Error("nil model should not resolve documents")
	}
	if m.Config().CategoryCap != ranking.DefaultConfig().CategoryCap {
		t.Error("nil model should report the default config")
	}
}

func TestModel_ConcurrentRecommend(t *testing.T) {
	m := mustBuild(t, exampleDocs(), nil)
	want, _ := m.Recommend("java test", 3)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Recommend("java test", 3)
			if err != nil {
				errs <- err
				return
			}
			if !reflect.DeepEqual(ids(got), ids(want)) {
				errs <- fmt.Errorf("got %v, want %v", ids(got), ids(want))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestDocumentText(t *testing.T) {
	d := &models.AssessmentDocument{Name: "Core Java", Description: "desc", TestType: []string{"K"}, Duration: models.IntPtr(20)}
	got := documentText(d, 2, true)
	want := "Core Java Core Java desc K technical knowledge skills programming coding development duration 20 minutes quick short"
	if got != want {
		t.Errorf("documentText = %q, want %q", got, want)
	}
	if got := documentText(d, 0, false); got != "Core Java desc K" {
		t.Errorf("documentText without expansion = %q", got)
	}
}

func BenchmarkRecommend(b *testing.B) {
	var docs []models.AssessmentDocument
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("doc-%03d", i)
		docs = append(docs, models.AssessmentDocument{
			ID: id, Name: fmt.Sprintf("Assessment %d", i),
			Description: fmt.Sprintf("skills test number %d covering topic %d and area %d", i, i%17, i%31),
			URL:         "https://x/view/" + id + "/", TestType: []string{ranking.DefaultCategoryPriority[i%8]},
		})
	}
	m := mustBuild(b, docs, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Recommend("skills test covering topic 3", 10); err != nil {
			b.Fatal(err)
		}
	}
}
