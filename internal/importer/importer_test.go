package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mquispe/planscope/internal/store"
)

func fixtureStore(t *testing.T) (*store.Store, string, string) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "planscope.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	e, err := st.UpsertElection(ctx, store.Election{Year: 2021, Type: "presidential", Country: "Peru"})
	if err != nil {
		t.Fatalf("seed election: %v", err)
	}
	if err := st.UpsertCandidate(ctx, store.Candidate{ID: "pedroCastillo", ElectionID: e.ID, Name: "Pedro Castillo", Party: "Perú Libre"}); err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	doc := store.Document{ElectionID: e.ID, Title: "plan"}
	if err := st.CreateDocument(ctx, &doc); err != nil {
		t.Fatalf("create document: %v", err)
	}
	return st, "pedroCastillo", doc.ID
}

func sampleArtifacts() Artifacts {
	return Artifacts{
		Thematic: ThematicSummary{Categories: []ThematicCategory{
			{Name: "Salud", Mentions: 12, ExamplePhrases: []string{"hospitales", "postas"}},
			{Name: "Educación", Mentions: 8},
		}},
		Typology: TypologySummary{Proposals: []TypologyProposal{
			{Text: "p1", Classification: "reforma"},
			{Text: "p2", Classification: "reforma"},
			{Text: "p3"},
			{Text: "p4", Classification: "mejora"},
		}},
		Insights: InsightsSummary{
			Overview: map[string]any{"summary": "resumen", "ideological_focus": "estado"},
			Patterns: map[string]any{"repetitions": []any{"infraestructura"}},
			DetailLevelByTopic: map[string][]string{
				"salud":     {"alto"},
				"educación": {"medio", "bajo"},
			},
			Score: ScoreData{
				DetailDistribution: map[string]any{"high": 3.0, "medium": 5.0},
				FinalScore:         0.62,
			},
		},
	}
}

func TestImportUnknownCandidateOrDocument(t *testing.T) {
	st, candID, docID := fixtureStore(t)
	im := NewImporter(st, zap.NewNop())

	if _, err := im.Import(context.Background(), "nobody", docID, sampleArtifacts()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for candidate, got %v", err)
	}
	if _, err := im.Import(context.Background(), candID, "no-doc", sampleArtifacts()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for document, got %v", err)
	}
}

func TestImportWritesAggregateRows(t *testing.T) {
	st, candID, docID := fixtureStore(t)
	im := NewImporter(st, zap.NewNop())

	res, err := im.Import(context.Background(), candID, docID, sampleArtifacts())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Thematic != 2 || res.Typologies != 3 {
		t.Fatalf("unexpected counts: %+v", res)
	}

	thematic, err := st.ThematicFor(context.Background(), candID, docID)
	if err != nil {
		t.Fatalf("thematic: %v", err)
	}
	if len(thematic) != 2 || thematic[0].Category != "Salud" || thematic[0].Count != 12 {
		t.Fatalf("unexpected thematic rows: %+v", thematic)
	}

	typology, err := st.TypologyFor(context.Background(), candID, docID)
	if err != nil {
		t.Fatalf("typology: %v", err)
	}
	byName := map[string]store.ProposalTypology{}
	for _, row := range typology {
		byName[row.Typology] = row
	}
	if byName["reforma"].Count != 2 {
		t.Fatalf("reforma count = %d", byName["reforma"].Count)
	}
	// Missing classification defaults to sin_detalle.
	if byName["sin_detalle"].Count != 1 {
		t.Fatalf("sin_detalle count = %d", byName["sin_detalle"].Count)
	}
}

func TestImportIdempotent(t *testing.T) {
	st, candID, docID := fixtureStore(t)
	im := NewImporter(st, zap.NewNop())

	if _, err := im.Import(context.Background(), candID, docID, sampleArtifacts()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	first, _ := st.ThematicFor(context.Background(), candID, docID)
	firstTyp, _ := st.TypologyFor(context.Background(), candID, docID)

	if _, err := im.Import(context.Background(), candID, docID, sampleArtifacts()); err != nil {
		t.Fatalf("second import: %v", err)
	}
	second, _ := st.ThematicFor(context.Background(), candID, docID)
	secondTyp, _ := st.TypologyFor(context.Background(), candID, docID)

	if len(first) != len(second) || len(firstTyp) != len(secondTyp) {
		t.Fatalf("row counts changed on re-import: %d→%d thematic, %d→%d typology",
			len(first), len(second), len(firstTyp), len(secondTyp))
	}
	for i := range second {
		if second[i].Category != first[i].Category || second[i].Count != first[i].Count {
			t.Fatalf("thematic row %d changed on re-import", i)
		}
	}
}

func TestImportReplacesOnChangedInput(t *testing.T) {
	st, candID, docID := fixtureStore(t)
	im := NewImporter(st, zap.NewNop())

	if _, err := im.Import(context.Background(), candID, docID, sampleArtifacts()); err != nil {
		t.Fatalf("first import: %v", err)
	}
	updated := sampleArtifacts()
	updated.Thematic.Categories[0].Mentions = 99

	if _, err := im.Import(context.Background(), candID, docID, updated); err != nil {
		t.Fatalf("second import: %v", err)
	}
	thematic, _ := st.ThematicFor(context.Background(), candID, docID)
	if thematic[0].Category != "Salud" || thematic[0].Count != 99 {
		t.Fatalf("upsert did not replace count: %+v", thematic[0])
	}
}

func TestGroupByTypologyCapsExamples(t *testing.T) {
	var proposals []TypologyProposal
	for i := 0; i < 8; i++ {
		proposals = append(proposals, TypologyProposal{Text: fmt.Sprintf("p%d", i), Classification: "ruptura"})
	}
	groups, order := groupByTypology(proposals)
	if len(order) != 1 || order[0] != "ruptura" {
		t.Fatalf("unexpected order: %v", order)
	}
	g := groups["ruptura"]
	if g.Count != 8 || len(g.Examples) != maxTypologyExamples {
		t.Fatalf("count=%d examples=%d", g.Count, len(g.Examples))
	}
}

func TestImportTruncatesEconomicFocus(t *testing.T) {
	st, candID, docID := fixtureStore(t)
	im := NewImporter(st, zap.NewNop())

	// The cut lands on the two-byte "ó" when measured in bytes.
	focus := strings.Repeat("e", maxEconomicFocusChars-1) + "ó" + strings.Repeat("z", 300)
	a := sampleArtifacts()
	a.Insights.Overview["ideological_focus"] = focus
	if _, err := im.Import(context.Background(), candID, docID, a); err != nil {
		t.Fatalf("import: %v", err)
	}
	// Verified indirectly through the truncate helper contract.
	got := truncate(focus, maxEconomicFocusChars)
	if n := utf8.RuneCountInString(got); n != maxEconomicFocusChars {
		t.Fatalf("truncate kept %d chars", n)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncated focus is not valid UTF-8")
	}
	if !strings.HasSuffix(got, "ó") {
		t.Fatal("accented rune at the cut was lost")
	}
}

func TestLoadArtifactsMissingFileFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, InsightsFile, map[string]any{})
	writeArtifact(t, dir, SummaryFile, map[string]any{"categories": []any{}})
	// proposal-typology.json deliberately absent.

	if _, err := LoadArtifacts(dir); err == nil {
		t.Fatal("expected error for missing artifact file")
	}
}

func TestLoadArtifactsParsesTriple(t *testing.T) {
	dir := t.TempDir()
	writeArtifact(t, dir, InsightsFile, map[string]any{
		"overview": map[string]any{"ideological_focus": "mixto"},
		"score":    map[string]any{"final_score": 0.71},
	})
	writeArtifact(t, dir, SummaryFile, map[string]any{
		"categories": []any{map[string]any{"name": "Salud", "mentions": 4}},
	})
	writeArtifact(t, dir, TypologyFile, map[string]any{
		"proposals": []any{map[string]any{"text": "p", "classification": "mejora"}},
	})

	a, err := LoadArtifacts(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(a.Thematic.Categories) != 1 || a.Thematic.Categories[0].Mentions != 4 {
		t.Fatalf("thematic: %+v", a.Thematic)
	}
	if a.Insights.Score.FinalScore != 0.71 {
		t.Fatalf("score: %v", a.Insights.Score.FinalScore)
	}
	if len(a.Typology.Proposals) != 1 {
		t.Fatalf("typology: %+v", a.Typology)
	}
}

func writeArtifact(t *testing.T, dir, name string, v any) {
	t.Helper()
	blob, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), blob, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}
