package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/code-samurai/learner-client/internal/models"
)

// Problem content tags, one per kind
const (
	TagMultipleChoice = "MultipleChoice"
	TagConstruct      = "Construct"
	TagOpen           = "Open"
)

type taskPayload struct {
	ID      string                     `json:"id"`
	Title   string                     `json:"title"`
	Content map[string]json.RawMessage `json:"content"`
}

type multipleChoiceContent struct {
	Question string   `json:"question"`
	Choices  []string `json:"choices"`
	Correct  *int     `json:"correct"`
}

type constructContent struct {
	Question string   `json:"question"`
	Tokens   []string `json:"tokens"`
	Order    []int    `json:"order"`
}

type openContent struct {
	Content string `json:"content"`
}

// DecodeProblem turns a task payload into a Problem. The content object must
// carry exactly one known tag.
func DecodeProblem(data []byte) (models.Problem, error) {
	var task taskPayload
	if err := json.Unmarshal(data, &task); err != nil {
		return models.Problem{}, err
	}
	if task.ID == "" {
		return models.Problem{}, fmt.Errorf("task without id")
	}
	if len(task.Content) != 1 {
		return models.Problem{}, fmt.Errorf("%w: %d content tags", ErrUnrecognizedShape, len(task.Content))
	}

	problem := models.Problem{ID: task.ID, Title: task.Title}
	for tag, raw := range task.Content {
		switch tag {
		case TagMultipleChoice:
			var mc multipleChoiceContent
			if err := json.Unmarshal(raw, &mc); err != nil {
				return models.Problem{}, fmt.Errorf("%s content: %w", tag, err)
			}
			if mc.Correct == nil || len(mc.Choices) == 0 {
				return models.Problem{}, fmt.Errorf("%w: %s without choices or answer", ErrUnrecognizedShape, tag)
			}
			problem.Kind = models.SingleChoice
			problem.Prompt = mc.Question
			problem.Choices = mc.Choices
			problem.CorrectIndex = *mc.Correct
		case TagConstruct:
			var cc constructContent
			if err := json.Unmarshal(raw, &cc); err != nil {
				return models.Problem{}, fmt.Errorf("%s content: %w", tag, err)
			}
			if len(cc.Tokens) == 0 || len(cc.Order) == 0 {
				return models.Problem{}, fmt.Errorf("%w: %s without tokens or order", ErrUnrecognizedShape, tag)
			}
			problem.Kind = models.TokenAssembly
			problem.Prompt = cc.Question
			problem.Tokens = cc.Tokens
			problem.CorrectOrder = cc.Order
		case TagOpen:
			var oc openContent
			if err := json.Unmarshal(raw, &oc); err != nil {
				return models.Problem{}, fmt.Errorf("%s content: %w", tag, err)
			}
			problem.Kind = models.FreeText
			problem.Prompt = oc.Content
		default:
			return models.Problem{}, fmt.Errorf("%w: tag %q", ErrUnrecognizedShape, tag)
		}
	}

	if problem.Prompt == "" {
		problem.Prompt = problem.Title
	}
	return problem, nil
}

// EncodeProblem is the inverse of DecodeProblem
func EncodeProblem(p models.Problem) ([]byte, error) {
	var tag string
	var content interface{}
	switch p.Kind {
	case models.SingleChoice:
		correct := p.CorrectIndex
		tag, content = TagMultipleChoice, multipleChoiceContent{Question: p.Prompt, Choices: p.Choices, Correct: &correct}
	case models.TokenAssembly:
		tag, content = TagConstruct, constructContent{Question: p.Prompt, Tokens: p.Tokens, Order: p.CorrectOrder}
	case models.FreeText:
		tag, content = TagOpen, openContent{Content: p.Prompt}
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnrecognizedShape, p.Kind)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(taskPayload{
		ID:      p.ID,
		Title:   p.Title,
		Content: map[string]json.RawMessage{tag: raw},
	})
}

func (c *Client) fetchProblem(ctx context.Context, in call) (models.Problem, error) {
	resp, err := c.do(ctx, in)
	if err != nil {
		return models.Problem{}, err
	}
	problem, err := DecodeProblem(resp.body)
	if err != nil {
		return models.Problem{}, decodeError(in.op, err)
	}
	return problem, nil
}

// FetchFirstProblem asks the server for a random problem to start with
func (c *Client) FetchFirstProblem(ctx context.Context, token string) (models.Problem, error) {
	return c.fetchProblem(ctx, call{
		op:     "fetch_first_problem",
		method: http.MethodGet,
		path:   "/user/task/random",
		token:  token,
		want:   http.StatusOK,
	})
}

// FetchNextProblem asks for a problem whose id is not in completed
func (c *Client) FetchNextProblem(ctx context.Context, token string, completed []string) (models.Problem, error) {
	if completed == nil {
		completed = []string{}
	}
	return c.fetchProblem(ctx, call{
		op:     "fetch_next_problem",
		method: http.MethodPost,
		path:   "/task/next",
		token:  token,
		body:   completed,
		want:   http.StatusOK,
	})
}
