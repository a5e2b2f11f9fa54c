// Package store persists the plan-analysis entity graph to SQLite.
//
// Elections and candidates are seeded once; documents, sections, proposals and
// classifications are append-only rows created by ingestion; the four
// aggregate tables (thematic, typology, summary, insights) are keyed by
// composite unique constraints and fully replaced on conflict.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS elections (
	election_id TEXT PRIMARY KEY,
	year        INTEGER NOT NULL,
	type        TEXT NOT NULL,
	country     TEXT NOT NULL,
	name        TEXT NOT NULL DEFAULT '',
	UNIQUE (year, type, country)
);

CREATE TABLE IF NOT EXISTS candidates (
	candidate_id TEXT PRIMARY KEY,
	election_id  TEXT NOT NULL,
	name         TEXT NOT NULL,
	party        TEXT NOT NULL DEFAULT '',
	position     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS documents (
	document_id TEXT PRIMARY KEY,
	election_id TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	url         TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
	section_id  TEXT PRIMARY KEY,
	document_id TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE (document_id, position)
);

CREATE TABLE IF NOT EXISTS proposals (
	proposal_id TEXT PRIMARY KEY,
	section_id  TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	content     TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	UNIQUE (section_id, position)
);

CREATE TABLE IF NOT EXISTS classifications (
	classification_id TEXT PRIMARY KEY,
	proposal_id       TEXT NOT NULL,
	category          TEXT NOT NULL,
	tags              TEXT NOT NULL DEFAULT '[]',
	description       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS thematic_classifications (
	row_id       TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	document_id  TEXT NOT NULL,
	category     TEXT NOT NULL,
	count        INTEGER NOT NULL DEFAULT 0,
	examples     TEXT NOT NULL DEFAULT '[]',
	UNIQUE (candidate_id, document_id, category)
);

CREATE TABLE IF NOT EXISTS proposal_typologies (
	row_id       TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	document_id  TEXT NOT NULL,
	typology     TEXT NOT NULL,
	count        INTEGER NOT NULL DEFAULT 0,
	examples     TEXT NOT NULL DEFAULT '[]',
	UNIQUE (candidate_id, document_id, typology)
);

CREATE TABLE IF NOT EXISTS proposal_summaries (
	row_id         TEXT PRIMARY KEY,
	candidate_id   TEXT NOT NULL,
	document_id    TEXT NOT NULL,
	typologies     TEXT NOT NULL DEFAULT '{}',
	metrics        TEXT NOT NULL DEFAULT '{}',
	economic_focus TEXT NOT NULL DEFAULT '',
	UNIQUE (candidate_id, document_id)
);

CREATE TABLE IF NOT EXISTS candidate_insights (
	row_id        TEXT PRIMARY KEY,
	candidate_id  TEXT NOT NULL,
	document_id   TEXT NOT NULL,
	overview      TEXT NOT NULL DEFAULT '{}',
	patterns      TEXT NOT NULL DEFAULT '{}',
	detail_levels TEXT NOT NULL DEFAULT '{}',
	score         TEXT NOT NULL DEFAULT '{}',
	UNIQUE (candidate_id, document_id)
);
`

// Store wraps a single SQLite handle. It is constructed at process start and
// closed at process end; it is not safe for concurrent writers beyond what the
// composite unique constraints serialize.
type Store struct {
	db *sqlx.DB
}

func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// --- elections & candidates ---

// UpsertElection inserts the election identified by (year, type, country) or
// refreshes its name, and returns the stored row.
func (s *Store) UpsertElection(ctx context.Context, e Election) (Election, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO elections (election_id, year, type, country, name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (year, type, country) DO UPDATE SET name = excluded.name`,
		uuid.NewString(), e.Year, e.Type, e.Country, e.Name)
	if err != nil {
		return Election{}, fmt.Errorf("upsert election: %w", err)
	}
	return s.FindElection(ctx, e.Year, e.Type, e.Country)
}

func (s *Store) FindElection(ctx context.Context, year int, typ, country string) (Election, error) {
	var e Election
	err := s.db.QueryRowContext(ctx, `SELECT election_id, year, type, country, name
		FROM elections WHERE year = ? AND type = ? AND country = ?`,
		year, typ, country).Scan(&e.ID, &e.Year, &e.Type, &e.Country, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return Election{}, notFound("election", fmt.Sprintf("%d/%s/%s", year, typ, country))
	}
	if err != nil {
		return Election{}, fmt.Errorf("find election: %w", err)
	}
	return e, nil
}

// UpsertCandidate inserts or refreshes a candidate keyed by its stable id.
func (s *Store) UpsertCandidate(ctx context.Context, c Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO candidates (candidate_id, election_id, name, party, position)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (candidate_id) DO UPDATE SET
			election_id = excluded.election_id,
			name = excluded.name,
			party = excluded.party,
			position = excluded.position`,
		c.ID, c.ElectionID, c.Name, c.Party, c.Position)
	if err != nil {
		return fmt.Errorf("upsert candidate: %w", err)
	}
	return nil
}

func (s *Store) FindCandidate(ctx context.Context, id string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT candidate_id, election_id, name, party, position
		FROM candidates WHERE candidate_id = ?`, id)
	return scanCandidate(row, "candidate", id)
}

// FindCandidateByName matches on a case-insensitive substring of the name
// within one election.
func (s *Store) FindCandidateByName(ctx context.Context, electionID, name string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT candidate_id, election_id, name, party, position
		FROM candidates
		WHERE election_id = ? AND instr(lower(name), lower(?)) > 0
		ORDER BY candidate_id LIMIT 1`, electionID, name)
	return scanCandidate(row, "candidate", name)
}

func (s *Store) FindCandidateByParty(ctx context.Context, electionID, party string) (Candidate, error) {
	row := s.db.QueryRowContext(ctx, `SELECT candidate_id, election_id, name, party, position
		FROM candidates WHERE election_id = ? AND party = ?
		ORDER BY candidate_id LIMIT 1`, electionID, party)
	return scanCandidate(row, "candidate", party)
}

func scanCandidate(row *sql.Row, entity, key string) (Candidate, error) {
	var c Candidate
	err := row.Scan(&c.ID, &c.ElectionID, &c.Name, &c.Party, &c.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return Candidate{}, notFound(entity, key)
	}
	if err != nil {
		return Candidate{}, fmt.Errorf("find %s: %w", entity, err)
	}
	return c, nil
}

// --- ingestion graph ---

// CreateDocument assigns an id and creation timestamp, then inserts the row.
func (s *Store) CreateDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO documents (document_id, election_id, title, source, url, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.ID, d.ElectionID, d.Title, d.Source, d.URL, d.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *Store) FindDocument(ctx context.Context, id string) (Document, error) {
	var d Document
	var createdAt string
	err := s.db.QueryRowContext(ctx, `SELECT document_id, election_id, title, source, url, created_at
		FROM documents WHERE document_id = ?`, id).
		Scan(&d.ID, &d.ElectionID, &d.Title, &d.Source, &d.URL, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, notFound("document", id)
	}
	if err != nil {
		return Document{}, fmt.Errorf("find document: %w", err)
	}
	d.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return d, nil
}

func (s *Store) CreateSection(ctx context.Context, sec *Section) error {
	if sec.ID == "" {
		sec.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sections (section_id, document_id, title, content, position)
		VALUES (?, ?, ?, ?, ?)`,
		sec.ID, sec.DocumentID, sec.Title, sec.Content, sec.Order)
	if err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

func (s *Store) CreateProposal(ctx context.Context, p *Proposal) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO proposals (proposal_id, section_id, title, content, position)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SectionID, p.Title, p.Content, p.Order)
	if err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

func (s *Store) CreateClassification(ctx context.Context, c *Classification) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO classifications (classification_id, proposal_id, category, tags, description)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.ProposalID, c.Category, string(tags), c.Description)
	if err != nil {
		return fmt.Errorf("create classification: %w", err)
	}
	return nil
}

func (s *Store) SectionsForDocument(ctx context.Context, documentID string) ([]Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT section_id, document_id, title, content, position
		FROM sections WHERE document_id = ? ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("sections for document: %w", err)
	}
	defer rows.Close()
	var out []Section
	for rows.Next() {
		var sec Section
		if err := rows.Scan(&sec.ID, &sec.DocumentID, &sec.Title, &sec.Content, &sec.Order); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

func (s *Store) ProposalsForSection(ctx context.Context, sectionID string) ([]Proposal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT proposal_id, section_id, title, content, position
		FROM proposals WHERE section_id = ? ORDER BY position`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("proposals for section: %w", err)
	}
	defer rows.Close()
	var out []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(&p.ID, &p.SectionID, &p.Title, &p.Content, &p.Order); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// --- aggregate upserts (full replace on conflict) ---

func (s *Store) UpsertThematic(ctx context.Context, t ThematicClassification) error {
	examples, err := json.Marshal(emptyIfNil(t.Examples))
	if err != nil {
		return fmt.Errorf("marshal examples: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO thematic_classifications (row_id, candidate_id, document_id, category, count, examples)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (candidate_id, document_id, category) DO UPDATE SET
			count = excluded.count,
			examples = excluded.examples`,
		uuid.NewString(), t.CandidateID, t.DocumentID, t.Category, t.Count, string(examples))
	if err != nil {
		return fmt.Errorf("upsert thematic: %w", err)
	}
	return nil
}

func (s *Store) UpsertTypology(ctx context.Context, t ProposalTypology) error {
	examples, err := json.Marshal(emptyIfNil(t.Examples))
	if err != nil {
		return fmt.Errorf("marshal examples: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO proposal_typologies (row_id, candidate_id, document_id, typology, count, examples)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (candidate_id, document_id, typology) DO UPDATE SET
			count = excluded.count,
			examples = excluded.examples`,
		uuid.NewString(), t.CandidateID, t.DocumentID, t.Typology, t.Count, string(examples))
	if err != nil {
		return fmt.Errorf("upsert typology: %w", err)
	}
	return nil
}

func (s *Store) UpsertSummary(ctx context.Context, sum ProposalSummary) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO proposal_summaries (row_id, candidate_id, document_id, typologies, metrics, economic_focus)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (candidate_id, document_id) DO UPDATE SET
			typologies = excluded.typologies,
			metrics = excluded.metrics,
			economic_focus = excluded.economic_focus`,
		uuid.NewString(), sum.CandidateID, sum.DocumentID,
		rawOrEmptyObject(sum.Typologies), rawOrEmptyObject(sum.Metrics), sum.EconomicFocus)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

func (s *Store) UpsertInsights(ctx context.Context, ins CandidateInsights) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO candidate_insights (row_id, candidate_id, document_id, overview, patterns, detail_levels, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (candidate_id, document_id) DO UPDATE SET
			overview = excluded.overview,
			patterns = excluded.patterns,
			detail_levels = excluded.detail_levels,
			score = excluded.score`,
		uuid.NewString(), ins.CandidateID, ins.DocumentID,
		rawOrEmptyObject(ins.Overview), rawOrEmptyObject(ins.Patterns),
		rawOrEmptyObject(ins.DetailLevels), rawOrEmptyObject(ins.Score))
	if err != nil {
		return fmt.Errorf("upsert insights: %w", err)
	}
	return nil
}

// --- aggregate reads ---

func (s *Store) ThematicFor(ctx context.Context, candidateID, documentID string) ([]ThematicClassification, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_id, candidate_id, document_id, category, count, examples
		FROM thematic_classifications
		WHERE candidate_id = ? AND document_id = ?
		ORDER BY count DESC, category`, candidateID, documentID)
	if err != nil {
		return nil, fmt.Errorf("thematic rows: %w", err)
	}
	defer rows.Close()
	var out []ThematicClassification
	for rows.Next() {
		var t ThematicClassification
		var examples string
		if err := rows.Scan(&t.ID, &t.CandidateID, &t.DocumentID, &t.Category, &t.Count, &examples); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(examples), &t.Examples)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) TypologyFor(ctx context.Context, candidateID, documentID string) ([]ProposalTypology, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT row_id, candidate_id, document_id, typology, count, examples
		FROM proposal_typologies
		WHERE candidate_id = ? AND document_id = ?
		ORDER BY count DESC, typology`, candidateID, documentID)
	if err != nil {
		return nil, fmt.Errorf("typology rows: %w", err)
	}
	defer rows.Close()
	var out []ProposalTypology
	for rows.Next() {
		var t ProposalTypology
		var examples string
		if err := rows.Scan(&t.ID, &t.CandidateID, &t.DocumentID, &t.Typology, &t.Count, &examples); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(examples), &t.Examples)
		out = append(out, t)
	}
	return out, rows.Err()
}

// InsightsForCandidate returns every insights row for the candidate whose
// document belongs to the given election, joined to the document. Ordered
// newest document first so the head is the "latest" aggregate; equal
// timestamps fall back to document id for determinism.
func (s *Store) InsightsForCandidate(ctx context.Context, candidateID, electionID string) ([]InsightsWithDocument, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
			i.row_id, i.candidate_id, i.document_id, i.overview, i.patterns, i.detail_levels, i.score,
			d.document_id, d.election_id, d.title, d.source, d.url, d.created_at
		FROM candidate_insights i
		JOIN documents d ON d.document_id = i.document_id
		WHERE i.candidate_id = ? AND d.election_id = ?
		ORDER BY d.created_at DESC, d.document_id DESC`, candidateID, electionID)
	if err != nil {
		return nil, fmt.Errorf("insights for candidate: %w", err)
	}
	defer rows.Close()
	var out []InsightsWithDocument
	for rows.Next() {
		var iw InsightsWithDocument
		var overview, patterns, detailLevels, score, createdAt string
		if err := rows.Scan(
			&iw.Insights.ID, &iw.Insights.CandidateID, &iw.Insights.DocumentID,
			&overview, &patterns, &detailLevels, &score,
			&iw.Document.ID, &iw.Document.ElectionID, &iw.Document.Title,
			&iw.Document.Source, &iw.Document.URL, &createdAt); err != nil {
			return nil, err
		}
		iw.Insights.Overview = json.RawMessage(overview)
		iw.Insights.Patterns = json.RawMessage(patterns)
		iw.Insights.DetailLevels = json.RawMessage(detailLevels)
		iw.Insights.Score = json.RawMessage(score)
		iw.Document.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, iw)
	}
	return out, rows.Err()
}

func emptyIfNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func rawOrEmptyObject(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
