package analysis

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mquispe/planscope/internal/llm"
)

const (
	// minProposalChars short-circuits texts too short to classify.
	minProposalChars = 10

	// maxProposalPrompt bounds the proposal prefix sent to the model.
	maxProposalPrompt = 2000
)

// The five-way stance typology. Everything outside the set is normalized to
// TypeSinDetalle by consumers.
const (
	TypeContinuidad = "continuidad"
	TypeMejora      = "mejora"
	TypeReforma     = "reforma"
	TypeRuptura     = "ruptura"
	TypeSinDetalle  = "sin_detalle"
)

const classifierSystemPrompt = "Eres un asistente que clasifica propuestas de planes de gobierno. Responde SOLO con JSON válido."

const classifierInstruction = `Clasifica esta propuesta en JSON.

Devuelve SOLO JSON con:
{
  "category": "...",
  "subcategory": "...",
  "type": "continuidad | mejora | reforma | ruptura | sin_detalle",
  "detailLevel": 1-5,
  "economicFocus": "mercado | estado | mixto | none",
  "impactLevel": "bajo | medio | alto",
  "tags": []
}

Propuesta:
`

// Classification is the taxonomy the model assigns to one proposal.
type Classification struct {
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Type          string   `json:"type"`
	DetailLevel   int      `json:"detailLevel"`
	EconomicFocus string   `json:"economicFocus"`
	ImpactLevel   string   `json:"impactLevel"`
	Tags          []string `json:"tags"`
}

// Classifier assigns the taxonomy to a single proposal text.
type Classifier struct {
	gen Generator
}

func NewClassifier(gen Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify returns the classification for proposalText, or nil when the text
// is below the minimum threshold or the model response cannot be parsed. Only
// exhausted retries propagate as an error; a proposal that fails
// classification is persisted without a classification row.
func (c *Classifier) Classify(ctx context.Context, proposalText string) (*Classification, error) {
	if len(strings.TrimSpace(proposalText)) < minProposalChars {
		return nil, nil
	}

	prompt := classifierInstruction + truncate(proposalText, maxProposalPrompt)
	raw, err := c.gen.Generate(ctx, classifierSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	var out Classification
	if err := json.Unmarshal([]byte(llm.StripCodeFences(raw)), &out); err != nil {
		return nil, nil
	}
	return &out, nil
}
