// Package models defines core data structures for assessments, training rows, and recommendations.
package models

// AssessmentDocument is one catalog entry.
type AssessmentDocument struct {
	ID              string   `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	Description     string   `json:"description" db:"description"`
	TestType        []string `json:"test_type" db:"test_type"`
	Duration        *int     `json:"duration" db:"duration"` // minutes; nil when unknown
	AdaptiveSupport bool     `json:"adaptive_support" db:"adaptive_support"`
	RemoteSupport   bool     `json:"remote_support" db:"remote_support"`
	URL             string   `json:"url" db:"url"`
}

// HasTestType reports whether the document carries the given category code.
func (d *AssessmentDocument) HasTestType(code string) bool {
	for _, t := range d.TestType {
		if t == code {
			return true
		}
	}
	return false
}

// TrainingAssociation is one labeled (query, assessment) row. Assessment may be
// an assessment id, its URL, or its display name.
type TrainingAssociation struct {
	Query      string `json:"query" db:"query"`
	Assessment string `json:"assessment" db:"assessment"`
}

// LabeledQuery is one evaluation query with the ids of the assessments expected for it.
type LabeledQuery struct {
	Query    string   `json:"query"`
	Expected []string `json:"expected"`
}

// IntPtr returns a pointer to v. Used for optional durations.
func IntPtr(v int) *int {
	return &v
}
