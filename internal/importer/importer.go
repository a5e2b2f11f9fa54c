// Package importer consumes pre-computed analysis artifacts for one
// (candidate, document) pair and upserts the aggregate rows. Every upsert is a
// full replace keyed by the composite unique constraint, so re-running the
// importer with the same artifacts is idempotent.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/analysis"
	"github.com/mquispe/planscope/internal/store"
)

const (
	// maxTypologyExamples caps the example texts kept per typology group.
	maxTypologyExamples = 5

	// maxEconomicFocusChars truncates the free-text ideological focus.
	maxEconomicFocusChars = 500
)

// Artifact file names inside an analysis folder.
const (
	InsightsFile = "candidate-insights.json"
	SummaryFile  = "proposal-summary.json"
	TypologyFile = "proposal-typology.json"
)

// ThematicSummary is the thematic artifact: category mention counts with
// example phrases.
type ThematicSummary struct {
	Categories []ThematicCategory `json:"categories"`
}

type ThematicCategory struct {
	Name           string   `json:"name"`
	Mentions       int      `json:"mentions"`
	ExamplePhrases []string `json:"example_phrases"`
}

// TypologySummary is the typology artifact: the flat proposal list with a
// declared stance classification per proposal.
type TypologySummary struct {
	Proposals []TypologyProposal `json:"proposals"`
}

type TypologyProposal struct {
	Text           string `json:"text"`
	Classification string `json:"classification"`
}

// InsightsSummary is the narrative artifact.
type InsightsSummary struct {
	Overview           map[string]any      `json:"overview"`
	Patterns           map[string]any      `json:"patterns"`
	DetailLevelByTopic map[string][]string `json:"detail_level_by_topic"`
	Score              ScoreData           `json:"score"`
}

type ScoreData struct {
	DetailDistribution map[string]any `json:"detail_distribution"`
	FinalScore         float64        `json:"final_score"`
	ScoringLogic       string         `json:"scoring_logic"`
}

// Artifacts bundles the three parsed files.
type Artifacts struct {
	Thematic ThematicSummary
	Typology TypologySummary
	Insights InsightsSummary
}

// LoadArtifacts validates that all three files exist before reading any of
// them, then parses the triple. A missing or malformed file is fatal — the
// importer must not run on a partial artifact set.
func LoadArtifacts(dir string) (Artifacts, error) {
	var a Artifacts
	paths := []string{
		filepath.Join(dir, InsightsFile),
		filepath.Join(dir, SummaryFile),
		filepath.Join(dir, TypologyFile),
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return a, fmt.Errorf("missing analysis file %s: %w", p, err)
		}
	}
	if err := readJSON(paths[0], &a.Insights); err != nil {
		return a, err
	}
	if err := readJSON(paths[1], &a.Thematic); err != nil {
		return a, err
	}
	if err := readJSON(paths[2], &a.Typology); err != nil {
		return a, err
	}
	return a, nil
}

func readJSON(path string, out any) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(blob, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Result counts the rows written.
type Result struct {
	Thematic   int
	Typologies int
}

type Importer struct {
	store *store.Store
	log   *zap.Logger
}

func NewImporter(st *store.Store, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{store: st, log: log}
}

// Import upserts the aggregate rows for (candidateID, documentID). Both must
// already exist.
func (im *Importer) Import(ctx context.Context, candidateID, documentID string, a Artifacts) (Result, error) {
	var res Result

	candidate, err := im.store.FindCandidate(ctx, candidateID)
	if err != nil {
		return res, err
	}
	if _, err := im.store.FindDocument(ctx, documentID); err != nil {
		return res, err
	}
	im.log.Info("importing aggregates",
		zap.String("candidate", candidate.Name),
		zap.String("document", documentID))

	for _, cat := range a.Thematic.Categories {
		err := im.store.UpsertThematic(ctx, store.ThematicClassification{
			CandidateID: candidateID,
			DocumentID:  documentID,
			Category:    cat.Name,
			Count:       cat.Mentions,
			Examples:    cat.ExamplePhrases,
		})
		if err != nil {
			return res, err
		}
		res.Thematic++
	}

	groups, order := groupByTypology(a.Typology.Proposals)

	typologies, err := json.Marshal(groups)
	if err != nil {
		return res, fmt.Errorf("marshal typologies: %w", err)
	}
	metrics, err := json.Marshal(orEmptyMap(a.Insights.Score.DetailDistribution))
	if err != nil {
		return res, fmt.Errorf("marshal metrics: %w", err)
	}
	summary := store.ProposalSummary{
		CandidateID:   candidateID,
		DocumentID:    documentID,
		Typologies:    typologies,
		Metrics:       metrics,
		EconomicFocus: truncate(economicFocus(a.Insights), maxEconomicFocusChars),
	}
	if err := im.store.UpsertSummary(ctx, summary); err != nil {
		return res, err
	}

	for _, typ := range order {
		g := groups[typ]
		err := im.store.UpsertTypology(ctx, store.ProposalTypology{
			CandidateID: candidateID,
			DocumentID:  documentID,
			Typology:    typ,
			Count:       g.Count,
			Examples:    g.Examples,
		})
		if err != nil {
			return res, err
		}
		res.Typologies++
	}

	insights := store.CandidateInsights{
		CandidateID:  candidateID,
		DocumentID:   documentID,
		Overview:     marshalMap(a.Insights.Overview),
		Patterns:     marshalMap(a.Insights.Patterns),
		DetailLevels: marshalDetailLevels(a.Insights.DetailLevelByTopic),
		Score:        marshalScore(a.Insights.Score),
	}
	if err := im.store.UpsertInsights(ctx, insights); err != nil {
		return res, err
	}

	im.log.Info("import complete",
		zap.Int("thematic", res.Thematic),
		zap.Int("typologies", res.Typologies))
	return res, nil
}

// TypologyGroup accumulates one stance bucket.
type TypologyGroup struct {
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// groupByTypology buckets proposals by declared classification, defaulting a
// missing classification to sin_detalle. Returned order is first-seen order.
func groupByTypology(proposals []TypologyProposal) (map[string]*TypologyGroup, []string) {
	groups := map[string]*TypologyGroup{}
	var order []string
	for _, p := range proposals {
		typ := p.Classification
		if typ == "" {
			typ = analysis.TypeSinDetalle
		}
		g, ok := groups[typ]
		if !ok {
			g = &TypologyGroup{Examples: []string{}}
			groups[typ] = g
			order = append(order, typ)
		}
		g.Count++
		if p.Text != "" && len(g.Examples) < maxTypologyExamples {
			g.Examples = append(g.Examples, p.Text)
		}
	}
	return groups, order
}

func economicFocus(ins InsightsSummary) string {
	v, ok := ins.Overview["ideological_focus"]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Sprint(v)
	}
	return s
}

// truncate bounds s to n characters without cutting inside a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func marshalMap(m map[string]any) json.RawMessage {
	blob, err := json.Marshal(orEmptyMap(m))
	if err != nil {
		return json.RawMessage("{}")
	}
	return blob
}

func marshalDetailLevels(m map[string][]string) json.RawMessage {
	if m == nil {
		m = map[string][]string{}
	}
	blob, err := json.Marshal(m)
	if err != nil {
		return json.RawMessage("{}")
	}
	return blob
}

func marshalScore(s ScoreData) json.RawMessage {
	blob, err := json.Marshal(s)
	if err != nil {
		return json.RawMessage("{}")
	}
	return blob
}
