package models

// RankedResult is one recommendation produced for a query. Not persisted.
type RankedResult struct {
	Document     *AssessmentDocument `json:"document"`
	Score        float64             `json:"score"`         // raw cosine similarity
	BoostedScore float64             `json:"boosted_score"` // similarity plus training boost
	Rank         int                 `json:"rank"`
}

// Recommendation is the flattened API shape of a RankedResult.
type Recommendation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description"`
	Duration        *int     `json:"duration"`
	AdaptiveSupport bool     `json:"adaptive_support"`
	RemoteSupport   bool     `json:"remote_support"`
	TestType        []string `json:"test_type"`
	Score           float64  `json:"score"`
	BoostedScore    float64  `json:"boosted_score"`
	Rank            int      `json:"rank"`
}

// NewRecommendation flattens r for output.
func NewRecommendation(r RankedResult) *Recommendation {
	rec := &Recommendation{
		Score:        r.Score,
		BoostedScore: r.BoostedScore,
		Rank:         r.Rank,
	}
	if d := r.Document; d != nil {
		rec.ID = d.ID
		rec.Name = d.Name
		rec.URL = d.URL
		rec.Description = d.Description
		rec.Duration = d.Duration
		rec.AdaptiveSupport = d.AdaptiveSupport
		rec.RemoteSupport = d.RemoteSupport
		rec.TestType = d.TestType
	}
	return rec
}

// RecommendResponse is the response for a recommendation request.
type RecommendResponse struct {
	RequestID       string            `json:"request_id,omitempty"`
	Query           string            `json:"query"`
	Recommendations []*Recommendation `json:"recommendations"`
	Count           int               `json:"count"`
	QueryTime       int64             `json:"query_time_ms"`
}
