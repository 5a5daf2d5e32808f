package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/code-samurai/learner-client/internal/errors"
	"github.com/code-samurai/learner-client/internal/models"
)

// ProblemValidator checks lesson problems before they enter a lesson
type ProblemValidator struct {
	structValidator *validator.Validate
}

// NewProblemValidator creates a new problem validator
func NewProblemValidator(structValidator *validator.Validate) *ProblemValidator {
	return &ProblemValidator{structValidator: structValidator}
}

// ValidateProblem validates a single problem and its kind-specific answer data
func (v *ProblemValidator) ValidateProblem(p models.Problem) error {
	if err := v.structValidator.Struct(p); err != nil {
		return fmt.Errorf("problem %q: %w", p.ID, err)
	}

	var err error
	switch p.Kind {
	case models.SingleChoice:
		err = v.validateSingleChoice(p)
	case models.TokenAssembly:
		err = v.validateTokenAssembly(p)
	case models.FreeText:
	default:
		return fmt.Errorf("unsupported problem kind: %s", p.Kind)
	}
	if err != nil {
		return fmt.Errorf("problem %q: %w", p.ID, err)
	}
	return nil
}

// ValidatePool validates every problem and rejects duplicate ids
func (v *ProblemValidator) ValidatePool(pool []models.Problem) error {
	if len(pool) == 0 {
		return fmt.Errorf("problem pool cannot be empty")
	}

	seen := make(map[string]bool, len(pool))
	for i, p := range pool {
		if seen[p.ID] {
			return fmt.Errorf("problem %d: duplicate id %q", i+1, p.ID)
		}
		seen[p.ID] = true

		if err := v.ValidateProblem(p); err != nil {
			return fmt.Errorf("validation failed for problem %d: %w", i+1, err)
		}
	}

	return nil
}

func (v *ProblemValidator) validateSingleChoice(p models.Problem) error {
	if len(p.Choices) < 2 {
		return apperrors.NewValidationErrorWithRule("choices", "must have at least 2 choices", "min", len(p.Choices))
	}

	for i, c := range p.Choices {
		if c == "" {
			return apperrors.NewValidationErrorWithRule(fmt.Sprintf("choices[%d]", i), "choice text cannot be empty", "required", c)
		}
	}

	if p.CorrectIndex < 0 || p.CorrectIndex >= len(p.Choices) {
		return apperrors.NewValidationErrorWithRule("correct_index",
			fmt.Sprintf("correct index %d out of range", p.CorrectIndex), "range", p.CorrectIndex)
	}

	return nil
}

func (v *ProblemValidator) validateTokenAssembly(p models.Problem) error {
	if len(p.Tokens) == 0 {
		return apperrors.NewValidationErrorWithRule("tokens", "must have tokens", "required", p.Tokens)
	}

	if len(p.CorrectOrder) == 0 {
		return apperrors.NewValidationErrorWithRule("correct_order", "must have a correct order", "required", p.CorrectOrder)
	}

	// The learner can pick each tile once, so the canonical order can't repeat one.
	used := make(map[int]bool, len(p.CorrectOrder))
	for _, idx := range p.CorrectOrder {
		if idx < 0 || idx >= len(p.Tokens) {
			return apperrors.NewValidationErrorWithRule("correct_order",
				fmt.Sprintf("token index %d out of range", idx), "range", idx)
		}
		if used[idx] {
			return apperrors.NewValidationErrorWithRule("correct_order",
				fmt.Sprintf("token index %d used twice", idx), "unique", idx)
		}
		used[idx] = true
	}

	return nil
}
