// Package report turns a comparison payload into a reader-facing document:
// markdown first, then HTML, then optionally a printed PDF.
package report

import (
	"fmt"
	"strings"

	"github.com/mquispe/planscope/internal/compare"
)

// BuildMarkdown renders the comparison as a Spanish-language markdown report
// with the same sections the dashboard shows: candidate cards, plan scores,
// thematic and typology tables, and the detail-level radar rows.
func BuildMarkdown(c *compare.Comparison) string {
	var sb strings.Builder

	nameA := c.CandidateA.Candidate.Name
	nameB := c.CandidateB.Candidate.Name

	sb.WriteString("# Comparación de Planes de Gobierno\n\n")
	fmt.Fprintf(&sb, "**%s** (%s) frente a **%s** (%s)\n\n",
		nameA, c.CandidateA.Candidate.Party, nameB, c.CandidateB.Candidate.Party)

	sb.WriteString("## Candidatos\n\n")
	writeCandidateCard(&sb, c.CandidateA)
	writeCandidateCard(&sb, c.CandidateB)

	sb.WriteString("## Puntuación del Plan\n\n")
	sb.WriteString("| Candidato | Puntuación | Nivel |\n|---|---|---|\n")
	fmt.Fprintf(&sb, "| %s | %d%% | %s |\n", nameA, c.ScoreA.Display, c.ScoreA.Label)
	fmt.Fprintf(&sb, "| %s | %d%% | %s |\n\n", nameB, c.ScoreB.Display, c.ScoreB.Label)

	if len(c.Thematic) > 0 {
		sb.WriteString("## Distribución Temática\n\n")
		fmt.Fprintf(&sb, "| Categoría | %s | %s |\n|---|---|---|\n", nameA, nameB)
		for _, row := range c.Thematic {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", row.Category, row.CountA, row.CountB)
		}
		sb.WriteString("\n")
	}

	if len(c.Typology) > 0 {
		sb.WriteString("## Tipología de Propuestas\n\n")
		fmt.Fprintf(&sb, "| Tipología | %s | %s |\n|---|---|---|\n", nameA, nameB)
		for _, row := range c.Typology {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", row.Typology, row.CountA, row.CountB)
		}
		sb.WriteString("\n")
	}

	if len(c.Radar) > 0 {
		sb.WriteString("## Nivel de Detalle por Tema (escala 1-5)\n\n")
		fmt.Fprintf(&sb, "| Tema | %s | %s |\n|---|---|---|\n", nameA, nameB)
		for _, row := range c.Radar {
			fmt.Fprintf(&sb, "| %s | %d | %d |\n", row.Topic, row.ScoreA, row.ScoreB)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeCandidateCard(sb *strings.Builder, side compare.CandidateSide) {
	fmt.Fprintf(sb, "### %s\n\n", side.Candidate.Name)
	fmt.Fprintf(sb, "- Partido: %s\n", side.Candidate.Party)
	if side.Metadata.Ideology != "" {
		fmt.Fprintf(sb, "- Ideología: %s\n", side.Metadata.Ideology)
	}
	if side.Document.Title != "" {
		fmt.Fprintf(sb, "- Documento: %s\n", side.Document.Title)
	}
	if side.Document.URL != "" {
		fmt.Fprintf(sb, "- Fuente: %s\n", side.Document.URL)
	}
	sb.WriteString("\n")
}
