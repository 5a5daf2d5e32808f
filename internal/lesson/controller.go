// Package lesson drives a single lesson attempt from problem selection to an
// end screen. A Controller is not safe for concurrent use: the UI drives it
// from one goroutine and hands remote grading results back through tickets.
package lesson

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/code-samurai/learner-client/internal/models"
	"github.com/google/uuid"
)

// MaxHearts is the number of mistakes a fast-forward attempt survives
const MaxHearts = 3

// LessonReward is granted for a completed, non-practice lesson
var LessonReward = Reward{XP: 3, Levels: 1}

// Reward is what a completed lesson adds to the learner's record
type Reward struct {
	XP     int
	Levels int
}

// Progress receives the outcome of a finished attempt
type Progress interface {
	CompleteLesson(ctx context.Context, reward Reward) error
	UnlockUnit(ctx context.Context, unit int) error
}

// Grader grades free-text answers remotely
type Grader interface {
	Grade(ctx context.Context, problem models.Problem, text string) (models.GradeResult, error)
}

// Options configure an attempt
type Options struct {
	// Practice attempts never touch progress
	Practice bool
	// FastForwardUnit > 0 enables hearts; passing unlocks that unit. Units
	// are numbered from 1, so zero is an ordinary lesson.
	FastForwardUnit int
	Rand            *rand.Rand
	Clock           func() time.Time
	Progress        Progress
}

// GradeTicket identifies one outstanding free-text grading round trip
type GradeTicket struct {
	AttemptID string
	ProblemID string
	Text      string
	seq       uint64
}

// Controller is one lesson attempt
type Controller struct {
	id       string
	opts     Options
	now      func() time.Time
	problems []models.Problem
	indices  []int

	state  State
	cursor int
	solved []bool

	correct   int
	incorrect int
	skipped   int

	selected int
	picked   []int

	seq          uint64
	pending      *GradeTicket
	retryPending bool
	gradeErr     error

	quitRequested bool
	results       []models.QuestionResult

	startedAt time.Time
	endedAt   time.Time
	finished  bool
}

// New starts an attempt with ProblemsPerLesson problems drawn from pool
func New(pool []models.Problem, opts Options) (*Controller, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	problems, indices, err := ChooseProblems(opts.Rand, pool)
	if err != nil {
		return nil, err
	}
	c, err := NewWithProblems(problems, opts)
	if err != nil {
		return nil, err
	}
	c.indices = indices
	return c, nil
}

// NewWithProblems starts an attempt over problems in the given order
func NewWithProblems(problems []models.Problem, opts Options) (*Controller, error) {
	if len(problems) == 0 {
		return nil, ErrPoolTooSmall
	}
	if opts.FastForwardUnit < 0 {
		return nil, ErrInvalidUnit
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	c := &Controller{
		id:       uuid.NewString(),
		opts:     opts,
		now:      opts.Clock,
		problems: append([]models.Problem(nil), problems...),
		solved:   make([]bool, len(problems)),
		state:    SelectingProblems,
		selected: -1,
	}
	c.startedAt = c.now()

	if c.HeartsTracked() {
		c.state = FastForwardStart
	} else {
		c.state = Answering
	}
	return c, nil
}

// ===== ACCESSORS =====

func (c *Controller) ID() string { return c.id }
func (c *Controller) State() State { return c.state }
func (c *Controller) Cursor() int { return c.cursor }
func (c *Controller) Correct() int { return c.correct }
func (c *Controller) Incorrect() int { return c.incorrect }
func (c *Controller) Practice() bool { return c.opts.Practice }
func (c *Controller) FastForwardUnit() int { return c.opts.FastForwardUnit }
func (c *Controller) RetryPending() bool { return c.retryPending }
func (c *Controller) GradeError() error { return c.gradeErr }
func (c *Controller) Grading() bool { return c.pending != nil }
func (c *Controller) QuitRequested() bool { return c.quitRequested }
func (c *Controller) Selected() int { return c.selected }
func (c *Controller) Required() int { return len(c.problems) }
func (c *Controller) HeartsTracked() bool { return c.opts.FastForwardUnit > 0 }
func (c *Controller) StartedAt() time.Time { return c.startedAt }
func (c *Controller) Problems() []models.Problem {
	return append([]models.Problem(nil), c.problems...)
}

// DrawnIndices returns the pool indices drawn by New, nil for NewWithProblems
func (c *Controller) DrawnIndices() []int {
	return append([]int(nil), c.indices...)
}

// Picked returns the token indices picked so far, in order
func (c *Controller) Picked() []int {
	return append([]int(nil), c.picked...)
}

// Hearts returns the remaining hearts and whether they are tracked at all
func (c *Controller) Hearts() (int, bool) {
	if !c.HeartsTracked() {
		return 0, false
	}
	return MaxHearts - c.incorrect, true
}

// Current returns the problem under the cursor
func (c *Controller) Current() (models.Problem, bool) {
	if c.cursor < 0 || c.cursor >= len(c.problems) {
		return models.Problem{}, false
	}
	return c.problems[c.cursor], true
}

// Results returns the ordered review log
func (c *Controller) Results() []models.QuestionResult {
	return append([]models.QuestionResult(nil), c.results...)
}

// LastResult returns the entry shown on the answer screen, or the answer that
// ended a fast-forward attempt
func (c *Controller) LastResult() (models.QuestionResult, bool) {
	if (c.state != AnswerShown && c.state != FastForwardPass) || len(c.results) == 0 {
		return models.QuestionResult{}, false
	}
	return c.results[len(c.results)-1], true
}

// ===== FLOW =====

// ConfirmStart leaves the fast-forward gate
func (c *Controller) ConfirmStart() error {
	if c.state != FastForwardStart {
		return ErrInvalidState
	}
	c.state = Answering
	c.startedAt = c.now()
	return nil
}

func (c *Controller) currentOfKind(kind models.ProblemKind) (models.Problem, error) {
	if c.state != Answering {
		return models.Problem{}, ErrInvalidState
	}
	problem, ok := c.Current()
	if !ok {
		return models.Problem{}, ErrInvalidState
	}
	if problem.Kind != kind {
		return models.Problem{}, ErrWrongKind
	}
	return problem, nil
}

// SelectChoice marks choice i of a single-choice problem
func (c *Controller) SelectChoice(i int) error {
	problem, err := c.currentOfKind(models.SingleChoice)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(problem.Choices) {
		return ErrChoiceOutOfRange
	}
	c.selected = i
	return nil
}

// PickToken appends token i to the assembled answer
func (c *Controller) PickToken(i int) error {
	problem, err := c.currentOfKind(models.TokenAssembly)
	if err != nil {
		return err
	}
	if i < 0 || i >= len(problem.Tokens) {
		return ErrTokenOutOfRange
	}
	for _, p := range c.picked {
		if p == i {
			return ErrTokenAlreadyUsed
		}
	}
	c.picked = append(c.picked, i)
	return nil
}

// UnpickToken removes token i from the assembled answer
func (c *Controller) UnpickToken(i int) error {
	if _, err := c.currentOfKind(models.TokenAssembly); err != nil {
		return err
	}
	for pos, p := range c.picked {
		if p == i {
			c.picked = append(c.picked[:pos], c.picked[pos+1:]...)
			return nil
		}
	}
	return ErrTokenNotPicked
}

// Check grades the current single-choice or token-assembly answer locally
func (c *Controller) Check() (bool, error) {
	if c.state != Answering {
		return false, ErrInvalidState
	}
	problem, ok := c.Current()
	if !ok {
		return false, ErrInvalidState
	}

	var correct bool
	var response string
	switch problem.Kind {
	case models.SingleChoice:
		correct = gradeChoice(problem, c.selected)
		if c.selected >= 0 && c.selected < len(problem.Choices) {
			response = problem.Choices[c.selected]
		}
	case models.TokenAssembly:
		correct = gradeTokens(problem, c.picked)
		response = problem.JoinTokens(c.picked)
	default:
		return false, ErrWrongKind
	}

	c.record(problem, response, "", correct)
	return correct, nil
}

// Skip reveals the canonical answer without grading
func (c *Controller) Skip() error {
	if c.state != Answering {
		return ErrInvalidState
	}
	if c.pending != nil {
		return ErrGradingInFlight
	}
	problem, _ := c.Current()

	c.skipped++
	c.retryPending = false
	c.gradeErr = nil
	c.results = append(c.results, models.QuestionResult{
		ProblemID: problem.ID,
		Question:  problem.Prompt,
		Expected:  problem.CanonicalAnswer(),
		Outcome:   models.OutcomeSkipped,
	})
	c.state = AnswerShown
	return nil
}

// record tallies a graded answer and shows it
func (c *Controller) record(problem models.Problem, response, explanation string, correct bool) {
	outcome := models.OutcomeIncorrect
	if correct {
		outcome = models.OutcomeCorrect
		c.correct++
		c.solved[c.cursor] = true
	} else {
		c.incorrect++
	}

	c.results = append(c.results, models.QuestionResult{
		ProblemID:   problem.ID,
		Question:    problem.Prompt,
		Response:    response,
		Expected:    problem.CanonicalAnswer(),
		Explanation: explanation,
		Outcome:     outcome,
	})
	c.state = AnswerShown

	// a pass does not wait for the answer screen to be left
	if hearts, tracked := c.Hearts(); tracked && hearts >= 0 && c.correct >= c.Required() {
		c.end(FastForwardPass)
	}
}

// Continue leaves the answer screen and moves to the next unsolved problem
func (c *Controller) Continue() error {
	if c.state != AnswerShown {
		return ErrInvalidState
	}

	c.selected = -1
	c.picked = nil
	c.retryPending = false
	c.gradeErr = nil
	c.state = Answering
	c.cursor = c.nextUnsolved()

	c.evaluateTerminal()
	return nil
}

// nextUnsolved walks forward from the cursor, wrapping, and returns the first
// problem not yet answered correctly, or len(problems) when all are solved.
func (c *Controller) nextUnsolved() int {
	n := len(c.problems)
	for step := 1; step <= n; step++ {
		i := (c.cursor + step) % n
		if !c.solved[i] {
			return i
		}
	}
	return n
}

func (c *Controller) evaluateTerminal() {
	required := c.Required()
	hearts, tracked := c.Hearts()

	switch {
	case tracked && hearts < 0:
		c.end(FastForwardFail)
	case tracked && c.correct >= required:
		c.end(FastForwardPass)
	case !tracked && c.correct >= required:
		c.end(LessonComplete)
	}
}

func (c *Controller) end(state State) {
	c.state = state
	c.endedAt = c.now()
	c.pending = nil
	c.quitRequested = false
}

// ===== QUIT =====

// RequestQuit asks to leave the attempt. It returns true when a confirmation
// is needed; otherwise the attempt is already discarded.
func (c *Controller) RequestQuit() bool {
	if c.state.IsOver() {
		return false
	}
	if len(c.results) == 0 {
		c.end(Quit)
		return false
	}
	c.quitRequested = true
	return true
}

// ConfirmQuit discards the attempt after RequestQuit
func (c *Controller) ConfirmQuit() error {
	if !c.quitRequested {
		return ErrNoQuitRequested
	}
	c.end(Quit)
	return nil
}

// CancelQuit returns to the attempt
func (c *Controller) CancelQuit() {
	c.quitRequested = false
}

// ===== COMPLETION =====

// Finish applies the attempt outcome to Progress. It succeeds at most once.
func (c *Controller) Finish(ctx context.Context) error {
	if !c.state.IsTerminal() {
		return ErrNotFinished
	}
	if c.finished {
		return ErrAlreadyFinished
	}

	if c.opts.Progress != nil {
		var err error
		switch c.state {
		case LessonComplete:
			if !c.opts.Practice {
				err = c.opts.Progress.CompleteLesson(ctx, LessonReward)
			}
		case FastForwardPass:
			err = c.opts.Progress.UnlockUnit(ctx, c.opts.FastForwardUnit)
		}
		if err != nil {
			return err
		}
	}

	c.finished = true
	return nil
}

// Finished reports whether Finish succeeded
func (c *Controller) Finished() bool {
	return c.finished
}

// Summary reports the attempt totals
func (c *Controller) Summary() Summary {
	end := c.endedAt
	if end.IsZero() {
		end = c.now()
	}
	elapsed := end.Sub(c.startedAt)
	return Summary{
		State:     c.state,
		Correct:   c.correct,
		Incorrect: c.incorrect,
		Skipped:   c.skipped,
		Accuracy:  accuracy(c.correct, c.incorrect),
		Elapsed:   elapsed,
		Time:      FormatDuration(elapsed),
	}
}

func trimAnswer(text string) string {
	return strings.TrimSpace(text)
}
