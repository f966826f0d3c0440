// Package catalog loads, validates, and indexes the assessment catalog and the
// training rows that reference it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/hyperjump/suisen/internal/models"
)

// StoreStats counts the documents accepted and skipped by NewStore.
type StoreStats struct {
	Input            int `json:"input"`
	Loaded           int `json:"loaded"`
	EmptyDescription int `json:"empty_description"`
	MissingField     int `json:"missing_field"`
	DuplicateID      int `json:"duplicate_id"`
}

// Skipped returns the total number of rejected documents.
func (s StoreStats) Skipped() int {
	return s.EmptyDescription + s.MissingField + s.DuplicateID
}

// Store is an immutable, validated set of assessment documents.
type Store struct {
	docs   []models.AssessmentDocument
	byID   map[string]int
	bySlug map[string]int
	byName map[string]int
}

// NewStore validates docs and indexes them by id, URL slug, and name.
// Documents without a name or URL, with an empty description, or whose id is
// already taken are skipped. Missing ids are derived from the URL slug, or from
// the input position when the URL has no usable slug.
func NewStore(docs []models.AssessmentDocument) (*Store, StoreStats) {
	stats := StoreStats{Input: len(docs)}
	s := &Store{
		docs:   make([]models.AssessmentDocument, 0, len(docs)),
		byID:   make(map[string]int, len(docs)),
		bySlug: make(map[string]int, len(docs)),
		byName: make(map[string]int, len(docs)),
	}
	for i, d := range docs {
		d.Name = strings.TrimSpace(d.Name)
		d.URL = strings.TrimSpace(d.URL)
		if d.Name == "" || d.URL == "" {
			stats.MissingField++
			continue
		}
		if strings.TrimSpace(d.Description) == "" {
			stats.EmptyDescription++
			continue
		}
		if d.ID == "" {
			d.ID = IDFromURL(d.URL)
		}
		if d.ID == "" {
			d.ID = fmt.Sprintf("doc-%d", i)
		}
		if _, dup := s.byID[d.ID]; dup {
			stats.DuplicateID++
			continue
		}
		d.TestType = append([]string(nil), d.TestType...)

		pos := len(s.docs)
		s.docs = append(s.docs, d)
		s.byID[d.ID] = pos
		if slug := IDFromURL(d.URL); slug != "" {
			if _, ok := s.bySlug[slug]; !ok {
				s.bySlug[slug] = pos
			}
		}
		if _, ok := s.byName[strings.ToLower(d.Name)]; !ok {
			s.byName[strings.ToLower(d.Name)] = pos
		}
	}
	stats.Loaded = len(s.docs)
	return s, stats
}

// Len returns the number of documents.
func (s *Store) Len() int {
	return len(s.docs)
}

// At returns the document at position i.
func (s *Store) At(i int) *models.AssessmentDocument {
	return &s.docs[i]
}

// Documents returns a copy of all documents in load order.
func (s *Store) Documents() []models.AssessmentDocument {
	out := make([]models.AssessmentDocument, len(s.docs))
	copy(out, s.docs)
	return out
}

// Get returns the document with the given id.
func (s *Store) Get(id string) (*models.AssessmentDocument, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.docs[i], true
}

// Resolve maps a reference to a document position. The reference may be an id,
// a catalog URL in any of its spellings, or a display name (case-insensitive).
func (s *Store) Resolve(ref string) (int, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	if i, ok := s.byID[ref]; ok {
		return i, true
	}
	if i, ok := s.bySlug[IDFromURL(ref)]; ok {
		return i, true
	}
	i, ok := s.byName[strings.ToLower(ref)]
	return i, ok
}
