// Package compare recombines two candidates' latest aggregates into a
// side-by-side comparison dataset. It only reads aggregate rows; raw documents
// are never touched.
package compare

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/store"
)

// ElectionRef pins the comparison to one election.
type ElectionRef struct {
	Year    int
	Type    string
	Country string
}

// CandidateSide is one candidate's half of the payload.
type CandidateSide struct {
	Candidate store.Candidate                `json:"candidate"`
	Metadata  CandidateMetadata              `json:"metadata"`
	Document  store.Document                 `json:"document"`
	Thematic  []store.ThematicClassification `json:"thematic"`
	Typology  []store.ProposalTypology       `json:"typology"`
	Insights  store.CandidateInsights        `json:"insights"`
}

// CandidateMetadata is the parsed position blob.
type CandidateMetadata struct {
	Ideology string `json:"ideology,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

// ScoreView is the display form of one raw plan score.
type ScoreView struct {
	Raw     float64 `json:"raw"`
	Display int     `json:"display"`
	Label   string  `json:"label"`
}

// Comparison is the full view-ready payload.
type Comparison struct {
	CandidateA CandidateSide    `json:"candidateA"`
	CandidateB CandidateSide    `json:"candidateB"`
	Thematic   []MergedCategory `json:"thematicComparison"`
	Typology   []MergedTypology `json:"typologyComparison"`
	Radar      []RadarRow       `json:"detailRadar"`
	ScoreA     ScoreView        `json:"scoreA"`
	ScoreB     ScoreView        `json:"scoreB"`
}

type Aggregator struct {
	store    *store.Store
	election ElectionRef
	log      *zap.Logger
}

func NewAggregator(st *store.Store, election ElectionRef, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{store: st, election: election, log: log}
}

// Compare builds the payload for two candidate slugs. A missing election,
// candidate, or insights row yields (nil, nil) — absence, not an error.
// Storage failures surface as errors.
func (a *Aggregator) Compare(ctx context.Context, slugA, slugB string) (*Comparison, error) {
	election, err := a.store.FindElection(ctx, a.election.Year, a.election.Type, a.election.Country)
	if err != nil {
		return a.absent(err)
	}

	sideA, err := a.loadSide(ctx, election.ID, slugA)
	if err != nil || sideA == nil {
		return a.absent(err)
	}
	sideB, err := a.loadSide(ctx, election.ID, slugB)
	if err != nil || sideB == nil {
		return a.absent(err)
	}

	cmp := &Comparison{
		CandidateA: *sideA,
		CandidateB: *sideB,
		Thematic:   MergeThematic(sideA.Thematic, sideB.Thematic),
		Typology:   MergeTypology(sideA.Typology, sideB.Typology),
		Radar:      DetailRadar(detailLevels(sideA.Insights), detailLevels(sideB.Insights)),
		ScoreA:     scoreView(sideA.Insights),
		ScoreB:     scoreView(sideB.Insights),
	}
	return cmp, nil
}

// absent downgrades not-found conditions to a nil payload and passes real
// storage errors through.
func (a *Aggregator) absent(err error) (*Comparison, error) {
	if err == nil || errors.Is(err, store.ErrNotFound) {
		if err != nil {
			a.log.Debug("comparison data absent", zap.Error(err))
		}
		return nil, nil
	}
	return nil, err
}

// loadSide resolves one slug to its candidate, picks the latest document via
// the insights join, and loads that document's aggregates.
func (a *Aggregator) loadSide(ctx context.Context, electionID, slug string) (*CandidateSide, error) {
	candidate, err := a.store.FindCandidateByParty(ctx, electionID, SlugToParty(slug))
	if err != nil {
		return nil, err
	}

	all, err := a.store.InsightsForCandidate(ctx, candidate.ID, electionID)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("insights for %s: %w", candidate.ID, store.ErrNotFound)
	}
	latest := all[0]

	thematic, err := a.store.ThematicFor(ctx, candidate.ID, latest.Document.ID)
	if err != nil {
		return nil, err
	}
	typology, err := a.store.TypologyFor(ctx, candidate.ID, latest.Document.ID)
	if err != nil {
		return nil, err
	}

	var meta CandidateMetadata
	if candidate.Position != "" {
		_ = json.Unmarshal([]byte(candidate.Position), &meta)
	}

	return &CandidateSide{
		Candidate: candidate,
		Metadata:  meta,
		Document:  latest.Document,
		Thematic:  thematic,
		Typology:  typology,
		Insights:  latest.Insights,
	}, nil
}

func detailLevels(ins store.CandidateInsights) map[string][]string {
	out := map[string][]string{}
	if len(ins.DetailLevels) > 0 {
		_ = json.Unmarshal(ins.DetailLevels, &out)
	}
	return out
}

func scoreView(ins store.CandidateInsights) ScoreView {
	var score struct {
		FinalScore float64 `json:"final_score"`
	}
	if len(ins.Score) > 0 {
		_ = json.Unmarshal(ins.Score, &score)
	}
	return ScoreView{
		Raw:     score.FinalScore,
		Display: DisplayScore(score.FinalScore),
		Label:   ScoreLabel(score.FinalScore),
	}
}
