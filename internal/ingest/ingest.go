// Package ingest drives the document pipeline: segment the raw text, persist
// sections, extract proposals per section, classify per proposal. Failures are
// isolated at section and proposal granularity so one bad model call never
// aborts the document.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/analysis"
	"github.com/mquispe/planscope/internal/segment"
	"github.com/mquispe/planscope/internal/store"
)

// minProposalChars discards extracted items too short to be a proposal.
const minProposalChars = 10

// maxDerivedTitle bounds the title derived from the proposal body.
const maxDerivedTitle = 200

// ElectionRef identifies the election ingestion targets.
type ElectionRef struct {
	Year    int
	Type    string
	Country string
}

// Extractor and Classifier are the two model-facing collaborators.
type Extractor interface {
	Extract(ctx context.Context, sectionText string) ([]analysis.ProposalItem, error)
}

type Classifier interface {
	Classify(ctx context.Context, proposalText string) (*analysis.Classification, error)
}

// Result reports how much of the document graph was persisted.
type Result struct {
	DocumentID             string
	SectionsCreated        int
	ProposalsCreated       int
	ClassificationsCreated int
	SectionsFailed         int
}

// DocumentMeta describes the Document row to create for this run. Every run
// creates a fresh Document; ingestion is not idempotent by design.
type DocumentMeta struct {
	Title  string
	Source string
	URL    string
}

type Orchestrator struct {
	store      *store.Store
	extractor  Extractor
	classifier Classifier
	election   ElectionRef
	maxChars   int
	log        *zap.Logger
}

func NewOrchestrator(st *store.Store, ex Extractor, cl Classifier, election ElectionRef, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		store:      st,
		extractor:  ex,
		classifier: cl,
		election:   election,
		maxChars:   segment.DefaultMaxChars,
		log:        log,
	}
}

// Ingest runs the whole pipeline for one document. A missing election or
// candidate is fatal; per-section and per-proposal model failures are logged
// and skipped, preserving partial progress.
func (o *Orchestrator) Ingest(ctx context.Context, rawText, candidateName string, meta DocumentMeta) (Result, error) {
	var res Result

	election, err := o.store.FindElection(ctx, o.election.Year, o.election.Type, o.election.Country)
	if err != nil {
		return res, fmt.Errorf("resolve election: %w", err)
	}
	candidate, err := o.store.FindCandidateByName(ctx, election.ID, candidateName)
	if err != nil {
		return res, fmt.Errorf("resolve candidate: %w", err)
	}
	o.log.Info("resolved candidate",
		zap.String("candidate", candidate.Name),
		zap.String("party", candidate.Party))

	doc := store.Document{
		ElectionID: election.ID,
		Title:      meta.Title,
		Source:     meta.Source,
		URL:        meta.URL,
	}
	if err := o.store.CreateDocument(ctx, &doc); err != nil {
		return res, err
	}
	res.DocumentID = doc.ID

	sections := segment.Split(rawText, o.maxChars)
	o.log.Info("segmented document",
		zap.String("document", doc.ID),
		zap.Int("sections", len(sections)))

	for i, sectionText := range sections {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := o.ingestSection(ctx, doc.ID, i, sectionText, &res); err != nil {
			// Section-level isolation: the section may or may not have
			// persisted before the failure; either way the document
			// continues.
			res.SectionsFailed++
			o.log.Warn("section failed",
				zap.Int("section", i),
				zap.Error(err))
		}
	}
	return res, nil
}

func (o *Orchestrator) ingestSection(ctx context.Context, documentID string, order int, sectionText string, res *Result) error {
	sec := store.Section{
		DocumentID: documentID,
		Title:      fmt.Sprintf("Sección %d", order+1),
		Content:    sectionText,
		Order:      order,
	}
	if err := o.store.CreateSection(ctx, &sec); err != nil {
		return err
	}
	res.SectionsCreated++

	items, err := o.extractor.Extract(ctx, sectionText)
	if err != nil {
		// The section stays persisted with zero proposals.
		o.log.Warn("extraction failed, section keeps zero proposals",
			zap.Int("section", order),
			zap.Error(err))
		return nil
	}
	o.log.Info("extracted proposals",
		zap.Int("section", order),
		zap.Int("count", len(items)))

	position := 0
	for _, item := range items {
		text := item.NormalizedText()
		if len(strings.TrimSpace(text)) < minProposalChars {
			continue
		}
		if err := o.ingestProposal(ctx, sec.ID, position, text, item, res); err != nil {
			o.log.Warn("proposal failed",
				zap.Int("section", order),
				zap.Int("proposal", position),
				zap.Error(err))
			continue
		}
		position++
	}
	return nil
}

func (o *Orchestrator) ingestProposal(ctx context.Context, sectionID string, order int, text string, item analysis.ProposalItem, res *Result) error {
	title := item.Title
	if title == "" {
		title = truncate(text, maxDerivedTitle)
	}
	prop := store.Proposal{
		SectionID: sectionID,
		Title:     title,
		Content:   text,
		Order:     order,
	}
	if err := o.store.CreateProposal(ctx, &prop); err != nil {
		return err
	}
	res.ProposalsCreated++

	// Only items that declare a category are worth a classification call.
	if item.Category == "" {
		return nil
	}

	cls, err := o.classifier.Classify(ctx, text)
	if err != nil {
		// The proposal stays persisted without a classification row.
		o.log.Warn("classification failed, proposal keeps no classification",
			zap.String("proposal", prop.ID),
			zap.Error(err))
		return nil
	}
	if cls == nil {
		return nil
	}

	category := cls.Category
	if category == "" {
		category = item.Category
	}
	description, _ := json.Marshal(map[string]any{
		"source":        "extractor",
		"title":         item.Title,
		"subcategory":   cls.Subcategory,
		"type":          cls.Type,
		"detailLevel":   cls.DetailLevel,
		"economicFocus": cls.EconomicFocus,
		"impactLevel":   cls.ImpactLevel,
	})
	row := store.Classification{
		ProposalID:  prop.ID,
		Category:    category,
		Tags:        cls.Tags,
		Description: string(description),
	}
	if err := o.store.CreateClassification(ctx, &row); err != nil {
		// The proposal row exists; losing only the classification keeps
		// the order sequence gapless.
		o.log.Warn("classification row not persisted",
			zap.String("proposal", prop.ID),
			zap.Error(err))
		return nil
	}
	res.ClassificationsCreated++
	return nil
}

// truncate bounds s to n characters without cutting inside a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
