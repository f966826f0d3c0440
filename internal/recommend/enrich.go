package recommend

import (
	"strconv"
	"strings"

	"github.com/hyperjump/suisen/internal/models"
)

var testTypeKeywords = map[string][]string{
	"K": {"technical", "knowledge", "skills", "programming", "coding", "development"},
	"P": {"personality", "behavioral", "collaboration", "communication", "interpersonal", "teamwork"},
	"C": {"cognitive", "reasoning", "analytical", "problem", "solving", "numerical", "verbal"},
	"A": {"ability", "aptitude", "skills"},
	"B": {"biodata", "situational", "judgement"},
	"D": {"development", "360", "feedback"},
	"E": {"exercise", "assessment", "centre"},
	"S": {"simulation", "practical"},
}

// documentText builds the bag of words a document is indexed under: the name
// repeated nameWeight times, the description, and the test-type codes. With
// expand set, category keywords and duration terms are appended.
func documentText(d *models.AssessmentDocument, nameWeight int, expand bool) string {
	if nameWeight < 1 {
		nameWeight = 1
	}
	parts := make([]string, 0, nameWeight+len(d.TestType)+4)
	for i := 0; i < nameWeight; i++ {
		parts = append(parts, d.Name)
	}
	parts = append(parts, d.Description)
	parts = append(parts, d.TestType...)

	if expand {
		for _, code := range d.TestType {
			parts = append(parts, testTypeKeywords[code]...)
		}
		if d.Duration != nil {
			parts = append(parts, durationTerms(*d.Duration)...)
		}
	}
	return strings.Join(parts, " ")
}

func durationTerms(minutes int) []string {
	terms := []string{"duration", strconv.Itoa(minutes), "minutes"}
	switch {
	case minutes <= 30:
		terms = append(terms, "quick", "short")
	case minutes <= 45:
		terms = append(terms, "standard", "medium")
	}
	return terms
}
