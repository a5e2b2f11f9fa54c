package store

import (
	"encoding/json"
	"time"
)

type Election struct {
	ID      string
	Year    int
	Type    string
	Country string
	Name    string
}

type Candidate struct {
	ID         string
	ElectionID string
	Name       string
	Party      string
	// Position carries presentation metadata (ideology, photo URL) as a JSON blob.
	Position string
}

type Document struct {
	ID         string
	ElectionID string
	Title      string
	Source     string
	URL        string
	CreatedAt  time.Time
}

type Section struct {
	ID         string
	DocumentID string
	Title      string
	Content    string
	Order      int
}

type Proposal struct {
	ID        string
	SectionID string
	Title     string
	Content   string
	Order     int
}

type Classification struct {
	ID          string
	ProposalID  string
	Category    string
	Tags        []string
	Description string
}

// ThematicClassification is one aggregate row per (candidate, document, category).
type ThematicClassification struct {
	ID          string
	CandidateID string
	DocumentID  string
	Category    string
	Count       int
	Examples    []string
}

// ProposalTypology is one aggregate row per (candidate, document, typology).
type ProposalTypology struct {
	ID          string
	CandidateID string
	DocumentID  string
	Typology    string
	Count       int
	Examples    []string
}

// ProposalSummary holds the full typology grouping plus derived metrics for a
// (candidate, document) pair. Typologies and Metrics are opaque JSON objects.
type ProposalSummary struct {
	ID            string
	CandidateID   string
	DocumentID    string
	Typologies    json.RawMessage
	Metrics       json.RawMessage
	EconomicFocus string
}

// CandidateInsights bundles the narrative analysis for a (candidate, document)
// pair. The four payload columns are opaque JSON objects copied verbatim from
// the analysis artifacts.
type CandidateInsights struct {
	ID           string
	CandidateID  string
	DocumentID   string
	Overview     json.RawMessage
	Patterns     json.RawMessage
	DetailLevels json.RawMessage
	Score        json.RawMessage
}

// InsightsWithDocument joins a CandidateInsights row to its Document, used for
// latest-document resolution in the comparison path.
type InsightsWithDocument struct {
	Insights CandidateInsights
	Document Document
}
