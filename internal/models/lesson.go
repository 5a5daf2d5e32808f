package models

type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeSkipped   Outcome = "skipped"
)

// QuestionResult is one entry of the lesson review log.
type QuestionResult struct {
	ProblemID   string  `json:"problem_id"`
	Question    string  `json:"question"`
	Response    string  `json:"response"`
	Expected    string  `json:"expected"`
	Explanation string  `json:"explanation,omitempty"`
	Outcome     Outcome `json:"outcome"`
}

// GradeResult is the remote verdict for a free-text answer.
type GradeResult struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
	// ResourceID is taken from the Location header of the answer resource.
	ResourceID string `json:"-"`
}

// Answer is a free-text submission.
type Answer struct {
	TaskID string `json:"task_id" validate:"required"`
	UserID string `json:"user_id"`
	Text   string `json:"content" validate:"required"`
}
