package api

import (
	"context"
	"net/http"
	"path"
	"strings"

	"github.com/code-samurai/learner-client/internal/models"
)

// AnswerRequest is the wire shape of a free-text submission
type AnswerRequest struct {
	TaskID  string        `json:"task_id"`
	UserID  string        `json:"user_id"`
	Content AnswerContent `json:"content"`
}

// AnswerContent is tagged like task content
type AnswerContent struct {
	OpenQuestion *OpenAnswer `json:"OpenQuestion,omitempty"`
}

type OpenAnswer struct {
	Content string `json:"content"`
}

type answerResponse struct {
	Correct     *bool   `json:"correct"`
	Explanation *string `json:"explanation"`
}

// SubmitAnswer sends a free-text answer for remote grading
func (c *Client) SubmitAnswer(ctx context.Context, token string, answer models.Answer) (models.GradeResult, error) {
	const op = "submit_answer"

	resp, err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/answer",
		token:  token,
		body: AnswerRequest{
			TaskID:  answer.TaskID,
			UserID:  answer.UserID,
			Content: AnswerContent{OpenQuestion: &OpenAnswer{Content: answer.Text}},
		},
		want: http.StatusCreated,
	})
	if err != nil {
		return models.GradeResult{}, err
	}

	var body answerResponse
	if err := decodeJSON(op, resp.body, &body); err != nil {
		return models.GradeResult{}, err
	}
	if body.Correct == nil {
		return models.GradeResult{}, decodeError(op, errMissingField("correct"))
	}

	result := models.GradeResult{Correct: *body.Correct}
	if body.Explanation != nil {
		result.Explanation = *body.Explanation
	}
	if loc := resp.header.Get("Location"); loc != "" {
		result.ResourceID = path.Base(strings.TrimRight(loc, "/"))
	}
	return result, nil
}

type errMissingField string

func (e errMissingField) Error() string {
	return "missing field " + string(e)
}
