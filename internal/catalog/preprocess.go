package catalog

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/pkg/utils"
)

// RawAssessment is a scraped catalog record before validation.
// Duration and TestType arrive in several shapes and are normalized by Preprocess.
type RawAssessment struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	Description     string `json:"description"`
	Duration        any    `json:"duration"`
	AdaptiveSupport bool   `json:"adaptive_support"`
	RemoteSupport   *bool  `json:"remote_support"`
	TestType        any    `json:"test_type"`
}

// PreprocessStats counts the outcome of a preprocessing run.
type PreprocessStats struct {
	Input    int `json:"input"`
	Kept     int `json:"kept"`
	Packaged int `json:"packaged"`
	Invalid  int `json:"invalid"`
	URLFixes int `json:"url_fixes"`
}

// Skipped returns the number of records that were dropped.
func (s PreprocessStats) Skipped() int {
	return s.Packaged + s.Invalid
}

const catalogPrefix = "/solutions/products/product-catalog/"

var (
	boilerplateRe   = regexp.MustCompile(`(?is)we recommend upgrading.*?(key features|$)`)
	labeledMinsRe   = regexp.MustCompile(`(?i)minutes?\s*=\s*(\d+)`)
	rangeMinutesRe  = regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*(?:min|minute)`)
	singleMinutesRe = regexp.MustCompile(`(?i)(\d+)\s*(?:min|minute)`)
	hoursRe         = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hour|hr)`)
)

// ValidCodes are the canonical test-type category codes.
var ValidCodes = []string{"A", "B", "C", "D", "E", "K", "P", "S"}

// Readable test-type names mapped to codes; the first keyword contained in a name wins.
var testTypeKeywords = []struct {
	keyword string
	code    string
}{
	{"technical", "K"},
	{"knowledge", "K"},
	{"skills", "K"},
	{"cognitive", "C"},
	{"competenc", "C"},
	{"ability", "A"},
	{"aptitude", "A"},
	{"personality", "P"},
	{"behavior", "P"},
	{"behavioural", "P"},
	{"development", "D"},
	{"exercise", "E"},
	{"simulation", "S"},
	{"biodata", "B"},
	{"situational", "B"},
}

// CleanText strips the browser-upgrade boilerplate and collapses whitespace.
func CleanText(text string) string {
	text = boilerplateRe.ReplaceAllString(text, "${1}")
	return utils.CollapseWhitespace(text)
}

// FixURL lowercases a catalog URL, drops its query and fragment, moves it under
// /solutions/products/product-catalog/ and ensures a trailing slash.
func FixURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	switch {
	case strings.Contains(u, catalogPrefix):
	case strings.Contains(u, "/products/product-catalog/"):
		u = strings.Replace(u, "/products/product-catalog/", catalogPrefix, 1)
	case strings.Contains(u, "/product-catalog/view/"):
		u = strings.Replace(u, "/product-catalog/", catalogPrefix, 1)
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

// IDFromURL returns the last path segment of a URL, lowercased. It is the
// stable identifier of a catalog entry.
func IDFromURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	return u
}

// ParseDuration converts a duration such as "30 min", "20-30 minutes",
// "minutes = 30" or "1.5 hours" into minutes. Ranges resolve to their midpoint.
func ParseDuration(v any) *int {
	switch d := v.(type) {
	case nil:
		return nil
	case float64:
		if d < 0 || d > math.MaxInt32 {
			return nil
		}
		return models.IntPtr(int(d))
	case int:
		if d < 0 {
			return nil
		}
		return models.IntPtr(d)
	case string:
		return parseDurationString(d)
	default:
		return parseDurationString(fmt.Sprint(d))
	}
}

func parseDurationString(s string) *int {
	if s == "" {
		return nil
	}
	if m := labeledMinsRe.FindStringSubmatch(s); m != nil {
		return atoiPtr(m[1])
	}
	if m := rangeMinutesRe.FindStringSubmatch(s); m != nil {
		lo, errLo := strconv.Atoi(m[1])
		hi, errHi := strconv.Atoi(m[2])
		if errLo != nil || errHi != nil {
			return nil
		}
		return models.IntPtr((lo + hi) / 2)
	}
	if m := singleMinutesRe.FindStringSubmatch(s); m != nil {
		return atoiPtr(m[1])
	}
	if m := hoursRe.FindStringSubmatch(s); m != nil {
		h, err := strconv.ParseFloat(m[1], 64)
		if err != nil || h*60 > math.MaxInt32 {
			return nil
		}
		return models.IntPtr(int(h * 60))
	}
	return atoiPtr(strings.TrimSpace(s))
}

// atoiPtr parses a non-negative minute count; nil when s is not a number or overflows.
func atoiPtr(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil
	}
	return models.IntPtr(n)
}

// NormalizeTestTypes maps codes or readable category names to sorted, unique
// codes. Unrecognized input yields ["General"].
func NormalizeTestTypes(v any) []string {
	var names []string
	switch t := v.(type) {
	case string:
		names = []string{t}
	case []string:
		names = t
	case []any:
		for _, x := range t {
			names = append(names, fmt.Sprint(x))
		}
	}

	codes := make(map[string]struct{})
	for _, name := range names {
		if code, ok := testTypeCode(name); ok {
			codes[code] = struct{}{}
		}
	}
	if len(codes) == 0 {
		return []string{"General"}
	}
	out := make([]string, 0, len(codes))
	for c := range codes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func testTypeCode(name string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, c := range ValidCodes {
		if upper == c {
			return c, true
		}
	}
	lower := strings.ToLower(name)
	for _, kw := range testTypeKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.code, true
		}
	}
	return "", false
}

// IsIndividualTest reports whether a raw record is an individual test rather
// than a pre-packaged job solution.
func IsIndividualTest(r RawAssessment) bool {
	name := strings.ToLower(r.Name)
	for _, kw := range []string{"solution", "job-focused", "job focused"} {
		if strings.Contains(name, kw) {
			return false
		}
	}
	desc := strings.ToLower(utils.Truncate(r.Description, 200))
	if strings.Contains(IDFromURL(r.URL), "solution") && !strings.Contains(desc, "solution") {
		return false
	}
	return true
}

// Preprocess validates one raw record. It returns false when the record is a
// packaged solution or lacks a name or URL.
func Preprocess(r RawAssessment) (models.AssessmentDocument, bool) {
	if !IsIndividualTest(r) {
		return models.AssessmentDocument{}, false
	}
	name := strings.TrimSpace(r.Name)
	if name == "" || strings.TrimSpace(r.URL) == "" {
		return models.AssessmentDocument{}, false
	}
	fixed := FixURL(r.URL)
	desc := CleanText(r.Description)
	if desc == "" {
		desc = name
	}
	remote := true
	if r.RemoteSupport != nil {
		remote = *r.RemoteSupport
	}
	return models.AssessmentDocument{
		ID:              IDFromURL(fixed),
		Name:            name,
		Description:     desc,
		TestType:        NormalizeTestTypes(r.TestType),
		Duration:        ParseDuration(r.Duration),
		AdaptiveSupport: r.AdaptiveSupport,
		RemoteSupport:   remote,
		URL:             fixed,
	}, true
}

// PreprocessAll runs Preprocess over raws and reports what was dropped.
func PreprocessAll(raws []RawAssessment) ([]models.AssessmentDocument, PreprocessStats) {
	stats := PreprocessStats{Input: len(raws)}
	docs := make([]models.AssessmentDocument, 0, len(raws))
	for _, r := range raws {
		if !IsIndividualTest(r) {
			stats.Packaged++
			continue
		}
		doc, ok := Preprocess(r)
		if !ok {
			stats.Invalid++
			continue
		}
		if !strings.Contains(strings.ToLower(r.URL), catalogPrefix) {
			stats.URLFixes++
		}
		docs = append(docs, doc)
	}
	stats.Kept = len(docs)
	return docs, stats
}
