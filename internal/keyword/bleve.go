package keyword

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/suisen/internal/models"
)

const catalogAnalyzer = "catalog"

// BleveIndex implements Index with an in-memory Bleve index.
type BleveIndex struct {
	index bleve.Index
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex builds an in-memory index over docs. Text fields use the same
// analysis as the recommendation vectorizer: unicode words, lowercased, English
// stop words removed. The test_type field is indexed verbatim.
func NewBleveIndex(docs []models.AssessmentDocument) (*BleveIndex, error) {
	im, err := buildMapping()
	if err != nil {
		return nil, err
	}
	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}

	batch := index.NewBatch()
	for _, d := range docs {
		if d.ID == "" {
			continue
		}
		if err := batch.Index(d.ID, map[string]interface{}{
			"name":        d.Name,
			"description": d.Description,
			"test_type":   d.TestType,
		}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to index %s: %w", d.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to apply index batch: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := im.AddCustomAnalyzer(catalogAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     unicode.Name,
		"token_filters": []string{lowercase.Name, en.StopName},
	}); err != nil {
		return nil, fmt.Errorf("failed to register analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = catalogAnalyzer
	docMapping.AddFieldMappingsAt("name", textFieldMapping)
	docMapping.AddFieldMappingsAt("description", textFieldMapping)
	codeFieldMapping := bleve.NewTextFieldMapping()
	codeFieldMapping.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("test_type", codeFieldMapping)
	im.DefaultMapping = docMapping
	im.DefaultAnalyzer = catalogAnalyzer
	return im, nil
}

// Search returns up to limit assessments matching query, best first with ties by id.
// An empty query matches every assessment.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	nameBoost := 2.0
	fuzziness := 1
	var fuzzy bool
	var testType string
	if opts != nil {
		if opts.NameBoost > 0 {
			nameBoost = opts.NameBoost
		}
		fuzzy = opts.FuzzyEnabled
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		testType = strings.ToUpper(strings.TrimSpace(opts.TestType))
	}

	var q blevequery.Query
	if strings.TrimSpace(query) == "" {
		q = bleve.NewMatchAllQuery()
	} else {
		nq := bleve.NewMatchQuery(query)
		nq.SetField("name")
		nq.SetBoost(nameBoost)
		dq := bleve.NewMatchQuery(query)
		dq.SetField("description")
		if fuzzy {
			nq.SetFuzziness(fuzziness)
			dq.SetFuzziness(fuzziness)
		}
		q = bleve.NewDisjunctionQuery(nq, dq)
	}
	if testType != "" {
		tq := bleve.NewTermQuery(testType)
		tq.SetField("test_type")
		q = bleve.NewConjunctionQuery(q, tq)
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{ID: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
