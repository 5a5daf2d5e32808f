package services

import (
	"context"
	"fmt"

	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/validator"
)

// AnswerAPI submits free-text answers for grading
type AnswerAPI interface {
	SubmitAnswer(ctx context.Context, token string, answer models.Answer) (models.GradeResult, error)
}

// Identity provides the current learner
type Identity interface {
	Snapshot() models.User
}

// GradingService grades free-text answers through the server. Every call is
// a round trip: the server records the answer and decides correctness.
type GradingService struct {
	client    AnswerAPI
	identity  Identity
	validator *validator.Validator
	logger    *ServiceLogger
}

func NewGradingService(client AnswerAPI, identity Identity, v *validator.Validator, logger *ServiceLogger) *GradingService {
	return &GradingService{
		client:    client,
		identity:  identity,
		validator: v,
		logger:    logger,
	}
}

// Grade implements lesson.Grader
func (s *GradingService) Grade(ctx context.Context, problem models.Problem, text string) (models.GradeResult, error) {
	if problem.Kind != models.FreeText {
		return models.GradeResult{}, ErrGradingNotAllowed
	}

	user := s.identity.Snapshot()
	op := s.logger.WithOperation(ctx, "grade_free_text", user.ID)

	answer := models.Answer{TaskID: problem.ID, UserID: user.ID, Text: text}
	if err := s.validator.Validate(answer); err != nil {
		op.LogResult(problem.ID, "problem", err)
		return models.GradeResult{}, err
	}

	result, err := s.client.SubmitAnswer(ctx, user.AuthToken, answer)
	op.LogResult(problem.ID, "problem", err)
	if err != nil {
		return models.GradeResult{}, fmt.Errorf("grading failed: %w", err)
	}
	return result, nil
}
