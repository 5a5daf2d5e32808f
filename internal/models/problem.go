package models

import "strings"

type ProblemKind string

const (
	SingleChoice  ProblemKind = "single_choice"
	TokenAssembly ProblemKind = "token_assembly"
	FreeText      ProblemKind = "free_text"
)

// Problem is an author-defined lesson question. Which answer fields are set
// depends on Kind: Choices/CorrectIndex for single choice, Tokens/CorrectOrder
// for token assembly and nothing for free text, which is graded remotely.
type Problem struct {
	ID     string      `json:"id" validate:"required"`
	Title  string      `json:"title,omitempty"`
	Prompt string      `json:"prompt" validate:"required"`
	Kind   ProblemKind `json:"kind" validate:"required,problem_kind"`

	Choices      []string `json:"choices,omitempty"`
	CorrectIndex int      `json:"correct_index,omitempty"`

	Tokens       []string `json:"tokens,omitempty"`
	CorrectOrder []int    `json:"correct_order,omitempty"`
}

// CanonicalAnswer renders the expected answer the way it is revealed to the
// learner. Free-text problems have none.
func (p Problem) CanonicalAnswer() string {
	switch p.Kind {
	case SingleChoice:
		if p.CorrectIndex >= 0 && p.CorrectIndex < len(p.Choices) {
			return p.Choices[p.CorrectIndex]
		}
	case TokenAssembly:
		return p.JoinTokens(p.CorrectOrder)
	}
	return ""
}

// JoinTokens renders a token index sequence as text, ignoring indices out of range.
func (p Problem) JoinTokens(order []int) string {
	parts := make([]string, 0, len(order))
	for _, i := range order {
		if i >= 0 && i < len(p.Tokens) {
			parts = append(parts, p.Tokens[i])
		}
	}
	return strings.Join(parts, " ")
}

// IsLocallyGraded reports whether the answer can be checked without the server.
func (p Problem) IsLocallyGraded() bool {
	return p.Kind == SingleChoice || p.Kind == TokenAssembly
}
