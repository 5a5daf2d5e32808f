package services

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/code-samurai/learner-client/internal/content"
	"github.com/code-samurai/learner-client/internal/events"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
)

// LessonOptions select the lesson variant
type LessonOptions struct {
	Practice        bool
	FastForwardUnit int
	// Remote builds the lesson from server problems instead of the built-in pool
	Remote bool
}

// ParseLessonOptions reads the lesson query string, e.g. "practice" or
// "fast-forward=2"
func ParseLessonOptions(query string) (LessonOptions, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil {
		return LessonOptions{}, fmt.Errorf("%w: %v", ErrInvalidLessonOptions, err)
	}

	var opts LessonOptions
	_, opts.Practice = values["practice"]
	_, opts.Remote = values["remote"]

	if raw, ok := values["fast-forward"]; ok {
		unit, err := strconv.Atoi(raw[0])
		if err != nil || unit <= 0 {
			return LessonOptions{}, fmt.Errorf("%w: fast-forward unit %q", ErrInvalidLessonOptions, raw[0])
		}
		if _, exists := content.UnitByNumber(unit); !exists {
			return LessonOptions{}, fmt.Errorf("%w: unit %d does not exist", ErrInvalidLessonOptions, unit)
		}
		opts.FastForwardUnit = unit
	}

	if opts.Practice && opts.FastForwardUnit > 0 {
		rule := NewBusinessRuleError("exclusive_lesson_modes",
			"Practice lessons can't fast-forward.",
			map[string]interface{}{"unit": opts.FastForwardUnit})
		return LessonOptions{}, fmt.Errorf("%w: %w", ErrInvalidLessonOptions, rule)
	}
	return opts, nil
}

// LessonService starts lessons, applies their outcome and announces them on
// the event bus
type LessonService struct {
	pool      []models.Problem
	feed      *ProblemFeed
	grader    lesson.Grader
	progress  lesson.Progress
	identity  Identity
	publisher events.EventPublisher
	logger    *ServiceLogger
	rng       *rand.Rand
	clock     func() time.Time
}

// LessonDeps groups the collaborators of a LessonService
type LessonDeps struct {
	Pool      []models.Problem
	Feed      *ProblemFeed
	Grader    lesson.Grader
	Progress  lesson.Progress
	Identity  Identity
	Publisher events.EventPublisher
	Logger    *ServiceLogger
	Rand      *rand.Rand
	Clock     func() time.Time
}

func NewLessonService(deps LessonDeps) *LessonService {
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Pool == nil {
		deps.Pool = content.ProblemPool()
	}
	return &LessonService{
		pool:      deps.Pool,
		feed:      deps.Feed,
		grader:    deps.Grader,
		progress:  deps.Progress,
		identity:  deps.Identity,
		publisher: deps.Publisher,
		logger:    deps.Logger,
		rng:       deps.Rand,
		clock:     deps.Clock,
	}
}

// Grader returns the free-text grader lessons should use
func (s *LessonService) Grader() lesson.Grader {
	return s.grader
}

// Start creates a new attempt
func (s *LessonService) Start(ctx context.Context, opts LessonOptions) (*lesson.Controller, error) {
	user := s.identity.Snapshot()
	op := s.logger.WithOperation(ctx, "start_lesson", user.ID)

	lessonOpts := lesson.Options{
		Practice:        opts.Practice,
		FastForwardUnit: opts.FastForwardUnit,
		Rand:            s.rng,
		Clock:           s.clock,
		Progress:        s.progress,
	}

	var (
		controller *lesson.Controller
		err        error
	)
	if opts.Remote {
		controller, err = s.startRemote(ctx, user, lessonOpts)
	} else {
		controller, err = lesson.New(s.pool, lessonOpts)
	}
	if err != nil {
		op.LogResult("", "lesson", err)
		return nil, err
	}
	op.LogResult(controller.ID(), "lesson", nil)

	ids := make([]string, 0, lesson.ProblemsPerLesson)
	for _, p := range controller.Problems() {
		ids = append(ids, p.ID)
	}
	s.publish(ctx, events.NewLessonStartedEvent(events.LessonStartedEvent{
		AttemptID:  controller.ID(),
		UserID:     user.ID,
		Practice:   opts.Practice,
		Unit:       opts.FastForwardUnit,
		ProblemIDs: ids,
	}))

	return controller, nil
}

func (s *LessonService) startRemote(ctx context.Context, user models.User, opts lesson.Options) (*lesson.Controller, error) {
	if s.feed == nil {
		return nil, fmt.Errorf("%w: no problem feed configured", ErrInvalidLessonOptions)
	}
	if !user.LoggedIn {
		return nil, ErrRemoteNeedsLogin
	}
	problems, err := s.feed.Load(ctx, lesson.ProblemsPerLesson)
	if err != nil {
		return nil, err
	}
	return lesson.NewWithProblems(problems, opts)
}

// AnswerRecorded announces the result currently shown by c
func (s *LessonService) AnswerRecorded(ctx context.Context, c *lesson.Controller) {
	result, ok := c.LastResult()
	if !ok {
		return
	}
	s.publish(ctx, events.NewAnswerGradedEvent(events.AnswerGradedEvent{
		AttemptID: c.ID(),
		ProblemID: result.ProblemID,
		Outcome:   string(result.Outcome),
	}))
}

// Finish applies the outcome of a terminal attempt and announces it
func (s *LessonService) Finish(ctx context.Context, c *lesson.Controller) (lesson.Summary, error) {
	user := s.identity.Snapshot()
	op := s.logger.WithOperation(ctx, "finish_lesson", user.ID)

	if err := c.Finish(ctx); err != nil {
		op.LogResult(c.ID(), "lesson", err)
		return c.Summary(), err
	}
	op.LogResult(c.ID(), "lesson", nil)

	if s.feed != nil {
		var solved []string
		for _, r := range c.Results() {
			if r.Outcome == models.OutcomeCorrect {
				solved = append(solved, r.ProblemID)
			}
		}
		s.feed.MarkCompleted(ctx, solved...)
	}

	summary := c.Summary()
	s.publish(ctx, events.NewLessonFinishedEvent(events.LessonFinishedEvent{
		AttemptID:  c.ID(),
		UserID:     user.ID,
		State:      c.State().String(),
		Correct:    summary.Correct,
		Incorrect:  summary.Incorrect,
		DurationMs: summary.Elapsed.Milliseconds(),
		FinishedAt: s.clock(),
	}))
	return summary, nil
}

// Quit announces an attempt the learner abandoned
func (s *LessonService) Quit(ctx context.Context, c *lesson.Controller) {
	if c.State() != lesson.Quit {
		return
	}
	s.publish(ctx, events.NewLessonQuitEvent(events.LessonQuitEvent{
		AttemptID: c.ID(),
		Answered:  len(c.Results()),
	}))
}

// publish never fails the caller: events are best effort
func (s *LessonService) publish(ctx context.Context, event *events.LessonEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishLessonEvent(ctx, event); err != nil {
		s.logger.Logger().Warn("Failed to publish lesson event",
			"event_type", event.Type,
			"error", err)
	}
}
