package compare

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/store"
)

var testElection = ElectionRef{Year: 2021, Type: "presidential", Country: "Peru"}

type fixture struct {
	st         *store.Store
	electionID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "planscope.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	e, err := st.UpsertElection(context.Background(), store.Election{
		Year: 2021, Type: "presidential", Country: "Peru",
	})
	if err != nil {
		t.Fatalf("seed election: %v", err)
	}
	return &fixture{st: st, electionID: e.ID}
}

func (f *fixture) addCandidate(t *testing.T, id, name, party string) {
	t.Helper()
	err := f.st.UpsertCandidate(context.Background(), store.Candidate{
		ID: id, ElectionID: f.electionID, Name: name, Party: party,
		Position: `{"ideology":"Por definir"}`,
	})
	if err != nil {
		t.Fatalf("seed candidate %s: %v", id, err)
	}
}

func (f *fixture) addDocumentWithInsights(t *testing.T, candidateID string, createdAt time.Time, score float64, detail map[string][]string) string {
	t.Helper()
	ctx := context.Background()
	doc := store.Document{ElectionID: f.electionID, Title: "plan", CreatedAt: createdAt}
	if err := f.st.CreateDocument(ctx, &doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	detailJSON, _ := json.Marshal(detail)
	scoreJSON, _ := json.Marshal(map[string]any{"final_score": score})
	err := f.st.UpsertInsights(ctx, store.CandidateInsights{
		CandidateID:  candidateID,
		DocumentID:   doc.ID,
		DetailLevels: detailJSON,
		Score:        scoreJSON,
	})
	if err != nil {
		t.Fatalf("upsert insights: %v", err)
	}
	return doc.ID
}

func TestCompareAbsentWhenCandidateMissing(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, "pedroCastillo", "Pedro Castillo", "Perú Libre")

	agg := NewAggregator(f.st, testElection, zap.NewNop())
	cmp, err := agg.Compare(context.Background(), "peru-libre", "fuerza-popular")
	if err != nil {
		t.Fatalf("missing candidate must be silent: %v", err)
	}
	if cmp != nil {
		t.Fatal("expected absent payload")
	}
}

func TestCompareAbsentWhenNoInsights(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, "pedroCastillo", "Pedro Castillo", "Perú Libre")
	f.addCandidate(t, "keikoFujimori", "Keiko Fujimori", "Fuerza Popular")
	f.addDocumentWithInsights(t, "pedroCastillo", time.Now(), 0.5, nil)
	// Fujimori has no insights rows at all.

	agg := NewAggregator(f.st, testElection, zap.NewNop())
	cmp, err := agg.Compare(context.Background(), "peru-libre", "fuerza-popular")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp != nil {
		t.Fatal("expected absent payload")
	}
}

func TestComparePicksLatestDocument(t *testing.T) {
	f := newFixture(t)
	f.addCandidate(t, "pedroCastillo", "Pedro Castillo", "Perú Libre")
	f.addCandidate(t, "keikoFujimori", "Keiko Fujimori", "Fuerza Popular")

	base := time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC)
	oldDoc := f.addDocumentWithInsights(t, "pedroCastillo", base, 0.40, nil)
	newDoc := f.addDocumentWithInsights(t, "pedroCastillo", base.AddDate(0, 1, 0), 0.62, map[string][]string{"salud": {"alto"}})
	f.addDocumentWithInsights(t, "keikoFujimori", base, 0.75, map[string][]string{"salud": {"medio"}})

	ctx := context.Background()
	mustUpsertThematic(t, f.st, "pedroCastillo", newDoc, "Salud", 3)
	mustUpsertThematic(t, f.st, "pedroCastillo", oldDoc, "Trabajo", 9) // stale, must be ignored
	mustUpsertThematic(t, f.st, "keikoFujimori", latestDocFor(t, f, "keikoFujimori"), "salud", 2)

	agg := NewAggregator(f.st, testElection, zap.NewNop())
	cmp, err := agg.Compare(ctx, "peru-libre", "fuerza-popular")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if cmp == nil {
		t.Fatal("expected payload")
	}
	if cmp.CandidateA.Document.ID != newDoc {
		t.Fatalf("latest document not selected: %s", cmp.CandidateA.Document.ID)
	}
	if len(cmp.Thematic) != 1 || cmp.Thematic[0].Category != "salud" {
		t.Fatalf("stale aggregates leaked into merge: %+v", cmp.Thematic)
	}
	if cmp.Thematic[0].CountA != 3 || cmp.Thematic[0].CountB != 2 {
		t.Fatalf("merged counts: %+v", cmp.Thematic[0])
	}
	if cmp.ScoreA.Display != 62 || cmp.ScoreA.Label != "Medio" {
		t.Fatalf("score A: %+v", cmp.ScoreA)
	}
	if cmp.ScoreB.Display != 75 || cmp.ScoreB.Label != "Alto" {
		t.Fatalf("score B: %+v", cmp.ScoreB)
	}
	if len(cmp.Radar) != 1 || cmp.Radar[0].ScoreA != 5 || cmp.Radar[0].ScoreB != 3 {
		t.Fatalf("radar: %+v", cmp.Radar)
	}
	if cmp.CandidateA.Metadata.Ideology != "Por definir" {
		t.Fatalf("metadata not parsed: %+v", cmp.CandidateA.Metadata)
	}
}

func mustUpsertThematic(t *testing.T, st *store.Store, candidateID, documentID, category string, count int) {
	t.Helper()
	err := st.UpsertThematic(context.Background(), store.ThematicClassification{
		CandidateID: candidateID, DocumentID: documentID, Category: category, Count: count,
	})
	if err != nil {
		t.Fatalf("upsert thematic: %v", err)
	}
}

func latestDocFor(t *testing.T, f *fixture, candidateID string) string {
	t.Helper()
	all, err := f.st.InsightsForCandidate(context.Background(), candidateID, f.electionID)
	if err != nil || len(all) == 0 {
		t.Fatalf("insights for %s: %v", candidateID, err)
	}
	return all[0].Document.ID
}
