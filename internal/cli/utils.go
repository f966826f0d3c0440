// Package cli provides output writers for the suisen command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/suisen/internal/evaluate"
	"github.com/hyperjump/suisen/internal/models"
	"github.com/hyperjump/suisen/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per recommendation.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const separator = "─────────────────────────────────────────────────────────"

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRecommendations writes a recommendation response to w in the given format.
func WriteRecommendations(w io.Writer, resp *models.RecommendResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, r := range resp.Recommendations {
			fmt.Fprintf(w, "%2d. %-50s %.4f  [%s]  %s\n",
				r.Rank, utils.Truncate(r.Name, 47), r.BoostedScore, strings.Join(r.TestType, ","), r.URL)
		}
		return nil
	default:
		writeRecommendationsText(w, resp)
		return nil
	}
}

func writeRecommendationsText(w io.Writer, resp *models.RecommendResponse) {
	fmt.Fprintf(w, "\n%d recommendations in %dms for %q\n\n", resp.Count, resp.QueryTime, TruncateWords(resp.Query, 12))
	for _, r := range resp.Recommendations {
		fmt.Fprintln(w, separator)
		fmt.Fprintf(w, "Rank: %d | Score: %.4f (Similarity: %.4f, Boost: %.4f)\n",
			r.Rank, r.BoostedScore, r.Score, r.BoostedScore-r.Score)
		fmt.Fprintf(w, "Name: %s\n", r.Name)
		fmt.Fprintf(w, "URL: %s\n", r.URL)
		fmt.Fprintf(w, "Test type: %s | Duration: %s | Remote: %s | Adaptive: %s\n",
			strings.Join(r.TestType, ", "), formatDuration(r.Duration), yesNo(r.RemoteSupport), yesNo(r.AdaptiveSupport))
		fmt.Fprintf(w, "\n%s\n\n", utils.Truncate(r.Description, 200))
	}
}

// WriteReport writes an evaluation report. In text mode, verbose lists every query.
func WriteReport(w io.Writer, report *evaluate.Report, format OutputFormat, verbose bool) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	n := len(report.Queries)
	fmt.Fprintf(w, "\nEvaluation %s: %d queries, Recall@%d = %.4f (%dms)\n",
		report.RunID, n, report.K, report.MeanRecall, report.Duration)
	d := report.Distribution
	fmt.Fprintf(w, "  >= 50%% recall: %d (%s)\n", d.High, percent(d.High, n))
	fmt.Fprintf(w, "  partial:       %d (%s)\n", d.Partial, percent(d.Partial, n))
	fmt.Fprintf(w, "  zero:          %d (%s)\n", d.Zero, percent(d.Zero, n))
	if !verbose {
		return nil
	}
	fmt.Fprintln(w)
	for i, q := range report.Queries {
		fmt.Fprintf(w, "%3d. %.2f (%d/%d)  %s\n", i+1, q.Recall, q.Matched, q.Expected, TruncateWords(q.Query, 10))
	}
	return nil
}

func formatDuration(minutes *int) string {
	if minutes == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d min", *minutes)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func percent(part, total int) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(part)/float64(total))
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
