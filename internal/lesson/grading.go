package lesson

import (
	"context"

	"github.com/code-samurai/learner-client/internal/models"
)

func gradeChoice(problem models.Problem, selected int) bool {
	return selected >= 0 && selected == problem.CorrectIndex
}

// gradeTokens compares element by element and in length
func gradeTokens(problem models.Problem, picked []int) bool {
	if len(picked) != len(problem.CorrectOrder) {
		return false
	}
	for i := range picked {
		if picked[i] != problem.CorrectOrder[i] {
			return false
		}
	}
	return true
}

// BeginFreeText starts remote grading of text for the current free-text
// problem. The ticket must be handed back to CompleteFreeText.
func (c *Controller) BeginFreeText(text string) (GradeTicket, error) {
	problem, err := c.currentOfKind(models.FreeText)
	if err != nil {
		return GradeTicket{}, err
	}
	if c.pending != nil {
		return GradeTicket{}, ErrGradingInFlight
	}
	text = trimAnswer(text)
	if text == "" {
		return GradeTicket{}, ErrEmptyAnswer
	}

	c.seq++
	ticket := GradeTicket{
		AttemptID: c.id,
		ProblemID: problem.ID,
		Text:      text,
		seq:       c.seq,
	}
	c.pending = &ticket
	c.retryPending = false
	c.gradeErr = nil
	return ticket, nil
}

// CompleteFreeText applies the outcome of a grading round trip. It returns
// false when the ticket is no longer current and the outcome was dropped.
// A non-nil err leaves the problem ungraded and marks it for retry.
func (c *Controller) CompleteFreeText(ticket GradeTicket, result models.GradeResult, err error) bool {
	if c.pending == nil || ticket.AttemptID != c.id || ticket.seq != c.pending.seq || c.state != Answering {
		return false
	}
	c.pending = nil

	if err != nil {
		c.retryPending = true
		c.gradeErr = err
		return true
	}

	problem, _ := c.Current()
	c.record(problem, ticket.Text, result.Explanation, result.Correct)
	return true
}

// SubmitFreeText grades text synchronously through grader
func (c *Controller) SubmitFreeText(ctx context.Context, grader Grader, text string) (models.GradeResult, error) {
	ticket, err := c.BeginFreeText(text)
	if err != nil {
		return models.GradeResult{}, err
	}
	problem, _ := c.Current()

	result, gradeErr := grader.Grade(ctx, problem, ticket.Text)
	c.CompleteFreeText(ticket, result, gradeErr)
	if gradeErr != nil {
		return models.GradeResult{}, gradeErr
	}
	return result, nil
}
