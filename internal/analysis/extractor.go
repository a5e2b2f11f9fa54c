// Package analysis holds the two model-facing operations of the pipeline:
// extracting discrete proposals from a document section and classifying a
// single proposal along the fixed taxonomy.
package analysis

import (
	"context"
	"strings"
	"unicode/utf8"
)

const (
	// minSectionChars short-circuits sections too short to hold a proposal
	// before any external call is made.
	minSectionChars = 50

	// maxSectionPrompt bounds the section prefix sent to the model.
	maxSectionPrompt = 8000
)

const extractorSystemPrompt = "Eres un asistente que extrae propuestas de planes de gobierno. Responde SOLO con JSON válido."

const extractorInstruction = `Extrae una lista JSON de propuestas concretas del siguiente texto.

Una propuesta debe ser una medida clara, específica y accionable.

Devuelve SOLO JSON con:
{ "proposals": [ { "text": "...", "title": "...", "category": "..." } ] }

Si no hay propuestas, devuelve { "proposals": [] }.

Texto:
`

// Extractor pulls structured proposals out of one section via a Generator.
// The generator is expected to already carry the retry policy (llm.Retrying)
// or the degraded fallback chain (llm.Chain).
type Extractor struct {
	gen Generator
}

// Generator is re-declared locally so fakes in this package's tests don't
// depend on the llm package internals.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract returns the proposals found in sectionText, possibly none. Inputs
// below the minimum threshold return an empty list without any external call.
// A malformed model response also degrades to an empty list; only exhausted
// retries propagate as an error.
func (e *Extractor) Extract(ctx context.Context, sectionText string) ([]ProposalItem, error) {
	if len(strings.TrimSpace(sectionText)) < minSectionChars {
		return nil, nil
	}

	prompt := extractorInstruction + truncate(sectionText, maxSectionPrompt)
	raw, err := e.gen.Generate(ctx, extractorSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	items, ok := parseProposals(raw)
	if !ok {
		return nil, nil
	}
	return items, nil
}

// truncate bounds s to n characters without cutting inside a rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
