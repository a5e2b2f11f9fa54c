package analysis

import (
	"encoding/json"

	"github.com/mquispe/planscope/internal/llm"
)

// ProposalItem is one extracted proposal as the model emitted it. Depending on
// the backend the items arrive as {text} or {title, description, category};
// both shapes are accepted.
type ProposalItem struct {
	Text        string `json:"text"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// NormalizedText picks the proposal body in preference order.
func (p ProposalItem) NormalizedText() string {
	switch {
	case p.Text != "":
		return p.Text
	case p.Description != "":
		return p.Description
	default:
		return p.Title
	}
}

type proposalEnvelope struct {
	Proposals []ProposalItem `json:"proposals"`
}

// parseProposals normalizes the two accepted response shapes — a bare array or
// an object wrapping a "proposals" array — into one list. Malformed output
// yields (nil, false); it is never an error.
func parseProposals(raw string) ([]ProposalItem, bool) {
	clean := llm.StripCodeFences(raw)
	if clean == "" {
		return nil, false
	}

	var env proposalEnvelope
	if err := json.Unmarshal([]byte(clean), &env); err == nil && env.Proposals != nil {
		return env.Proposals, true
	}

	var items []ProposalItem
	if err := json.Unmarshal([]byte(clean), &items); err == nil {
		return items, true
	}
	return nil, false
}
