package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func seedElection(t *testing.T, st *Store) Election {
	t.Helper()
	e, err := st.UpsertElection(context.Background(), Election{
		Year: 2021, Type: "presidential", Country: "Peru",
		Name: "Elecciones presidenciales Perú 2021",
	})
	if err != nil {
		t.Fatalf("UpsertElection: %v", err)
	}
	return e
}

func TestUpsertElectionIsStable(t *testing.T) {
	st := openTestStore(t)
	first := seedElection(t, st)

	second, err := st.UpsertElection(context.Background(), Election{
		Year: 2021, Type: "presidential", Country: "Peru", Name: "renamed",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("election id changed on upsert: %s -> %s", first.ID, second.ID)
	}
	if second.Name != "renamed" {
		t.Errorf("name not refreshed: %q", second.Name)
	}
}

func TestUpsertCandidateReplacesFields(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	c := Candidate{ID: "pedroCastillo", ElectionID: e.ID, Name: "Pedro Castillo", Party: "Perú Libre"}
	if err := st.UpsertCandidate(ctx, c); err != nil {
		t.Fatalf("UpsertCandidate: %v", err)
	}
	c.Position = `{"ideology":"izquierda"}`
	if err := st.UpsertCandidate(ctx, c); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := st.FindCandidate(ctx, "pedroCastillo")
	if err != nil {
		t.Fatalf("FindCandidate: %v", err)
	}
	if got.Position != `{"ideology":"izquierda"}` {
		t.Errorf("position = %q", got.Position)
	}
}

func TestFindCandidateByNameSubstring(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	must := func(c Candidate) {
		t.Helper()
		if err := st.UpsertCandidate(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	must(Candidate{ID: "pedroCastillo", ElectionID: e.ID, Name: "Pedro Castillo", Party: "Perú Libre"})
	must(Candidate{ID: "keikoFujimori", ElectionID: e.ID, Name: "Keiko Fujimori", Party: "Fuerza Popular"})

	got, err := st.FindCandidateByName(ctx, e.ID, "castillo")
	if err != nil {
		t.Fatalf("FindCandidateByName: %v", err)
	}
	if got.ID != "pedroCastillo" {
		t.Errorf("matched %s", got.ID)
	}

	if _, err := st.FindCandidateByName(ctx, e.ID, "vargas llosa"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFindCandidateByParty(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	c := Candidate{ID: "keikoFujimori", ElectionID: e.ID, Name: "Keiko Fujimori", Party: "Fuerza Popular"}
	if err := st.UpsertCandidate(ctx, c); err != nil {
		t.Fatal(err)
	}

	got, err := st.FindCandidateByParty(ctx, e.ID, "Fuerza Popular")
	if err != nil {
		t.Fatalf("FindCandidateByParty: %v", err)
	}
	if got.ID != "keikoFujimori" {
		t.Errorf("matched %s", got.ID)
	}
}

func TestDocumentGraphRoundTrip(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	doc := Document{ElectionID: e.ID, Title: "Plan de gobierno", Source: "upload"}
	if err := st.CreateDocument(ctx, &doc); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
	if doc.ID == "" || doc.CreatedAt.IsZero() {
		t.Fatalf("document not populated: %+v", doc)
	}

	sec := Section{DocumentID: doc.ID, Title: "Sección 1", Content: "contenido", Order: 0}
	if err := st.CreateSection(ctx, &sec); err != nil {
		t.Fatalf("CreateSection: %v", err)
	}
	p := Proposal{SectionID: sec.ID, Title: "propuesta", Content: "texto de la propuesta", Order: 0}
	if err := st.CreateProposal(ctx, &p); err != nil {
		t.Fatalf("CreateProposal: %v", err)
	}
	cl := Classification{ProposalID: p.ID, Category: "salud", Tags: []string{"hospitales"}}
	if err := st.CreateClassification(ctx, &cl); err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}

	secs, err := st.SectionsForDocument(ctx, doc.ID)
	if err != nil || len(secs) != 1 {
		t.Fatalf("SectionsForDocument = %v, %v", secs, err)
	}
	props, err := st.ProposalsForSection(ctx, sec.ID)
	if err != nil || len(props) != 1 {
		t.Fatalf("ProposalsForSection = %v, %v", props, err)
	}
}

func TestUpsertThematicReplaces(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	c := Candidate{ID: "c1", ElectionID: e.ID, Name: "C", Party: "P"}
	if err := st.UpsertCandidate(ctx, c); err != nil {
		t.Fatal(err)
	}
	doc := Document{ElectionID: e.ID, Title: "plan"}
	if err := st.CreateDocument(ctx, &doc); err != nil {
		t.Fatal(err)
	}

	row := ThematicClassification{
		CandidateID: c.ID, DocumentID: doc.ID,
		Category: "salud", Count: 3, Examples: []string{"a"},
	}
	if err := st.UpsertThematic(ctx, row); err != nil {
		t.Fatalf("UpsertThematic: %v", err)
	}
	row.Count = 7
	row.Examples = []string{"b", "c"}
	if err := st.UpsertThematic(ctx, row); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := st.ThematicFor(ctx, c.ID, doc.ID)
	if err != nil {
		t.Fatalf("ThematicFor: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	if rows[0].Count != 7 || len(rows[0].Examples) != 2 {
		t.Errorf("row not replaced: %+v", rows[0])
	}
}

func TestInsightsForCandidateLatestFirst(t *testing.T) {
	st := openTestStore(t)
	e := seedElection(t, st)
	ctx := context.Background()

	c := Candidate{ID: "c1", ElectionID: e.ID, Name: "C", Party: "P"}
	if err := st.UpsertCandidate(ctx, c); err != nil {
		t.Fatal(err)
	}

	older := Document{ElectionID: e.ID, Title: "v1"}
	if err := st.CreateDocument(ctx, &older); err != nil {
		t.Fatal(err)
	}
	// created_at has nanosecond precision; a short sleep keeps the ordering
	// unambiguous.
	time.Sleep(2 * time.Millisecond)
	newer := Document{ElectionID: e.ID, Title: "v2"}
	if err := st.CreateDocument(ctx, &newer); err != nil {
		t.Fatal(err)
	}

	for _, docID := range []string{older.ID, newer.ID} {
		ins := CandidateInsights{
			CandidateID: c.ID, DocumentID: docID,
			Overview: json.RawMessage(`{"ideological_focus":"x"}`),
		}
		if err := st.UpsertInsights(ctx, ins); err != nil {
			t.Fatalf("UpsertInsights: %v", err)
		}
	}

	got, err := st.InsightsForCandidate(ctx, c.ID, e.ID)
	if err != nil {
		t.Fatalf("InsightsForCandidate: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].Document.ID != newer.ID {
		t.Errorf("latest document = %s, want %s", got[0].Document.ID, newer.ID)
	}
}

func TestFindDocumentNotFound(t *testing.T) {
	st := openTestStore(t)
	if _, err := st.FindDocument(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
