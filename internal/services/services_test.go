package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/apitest"
	"github.com/code-samurai/learner-client/internal/cache"
	"github.com/code-samurai/learner-client/internal/config"
	"github.com/code-samurai/learner-client/internal/events"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/session"
	"github.com/code-samurai/learner-client/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ===== TEST HELPERS =====

func testSlog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServiceLogger() *ServiceLogger {
	return NewServiceLogger(testSlog(), LogConfig{Service: "learner-client", Component: "test", EnableDebug: true})
}

type staticIdentity struct {
	user models.User
}

func (s staticIdentity) Snapshot() models.User { return s.user }

func loggedIn() staticIdentity {
	u := models.EmptyUser()
	u.LoggedIn = true
	u.ID = "u1"
	u.AuthToken = "Bearer t1"
	return staticIdentity{user: u}
}

// MockAnswerAPI implements AnswerAPI
type MockAnswerAPI struct {
	mock.Mock
}

func (m *MockAnswerAPI) SubmitAnswer(ctx context.Context, token string, answer models.Answer) (models.GradeResult, error) {
	args := m.Called(ctx, token, answer)
	return args.Get(0).(models.GradeResult), args.Error(1)
}

type activityCounter struct {
	mu   sync.Mutex
	days []time.Time
}

func (a *activityCounter) RecordActiveDay(at time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.days = append(a.days, at)
	return len(a.days)
}

func (a *activityCounter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.days)
}

var openProblem = models.Problem{ID: "f2d7a6f58d8c41eb9bd2726306620065", Prompt: "print the greater", Kind: models.FreeText}

// ===== GRADING SERVICE =====

func TestGradingServiceSubmitsEveryAnswer(t *testing.T) {
	client := new(MockAnswerAPI)
	answer := models.Answer{TaskID: openProblem.ID, UserID: "u1", Text: "System.out.println(9);"}
	client.On("SubmitAnswer", mock.Anything, "Bearer t1", answer).
		Return(models.GradeResult{Correct: true, Explanation: "ok", ResourceID: "a1"}, nil).Once()
	client.On("SubmitAnswer", mock.Anything, "Bearer t1", answer).
		Return(models.GradeResult{Correct: true, Explanation: "ok", ResourceID: "a2"}, nil).Once()

	svc := NewGradingService(client, loggedIn(), validator.New(), testServiceLogger())
	ctx := context.Background()

	first, err := svc.Grade(ctx, openProblem, "System.out.println(9);")
	require.NoError(t, err)
	assert.True(t, first.Correct)
	assert.Equal(t, "a1", first.ResourceID)

	second, err := svc.Grade(ctx, openProblem, "System.out.println(9);")
	require.NoError(t, err)
	assert.Equal(t, "a2", second.ResourceID)

	client.AssertExpectations(t)
}

func TestGradingServiceUsesEachLearnersIdentity(t *testing.T) {
	client := new(MockAnswerAPI)
	client.On("SubmitAnswer", mock.Anything, "Bearer t1", models.Answer{TaskID: openProblem.ID, UserID: "u1", Text: "x"}).
		Return(models.GradeResult{Correct: true}, nil).Once()
	client.On("SubmitAnswer", mock.Anything, "Bearer t2", models.Answer{TaskID: openProblem.ID, UserID: "u2", Text: "x"}).
		Return(models.GradeResult{Correct: false, Explanation: "not for you"}, nil).Once()

	other := models.EmptyUser()
	other.LoggedIn = true
	other.ID = "u2"
	other.AuthToken = "Bearer t2"

	ctx := context.Background()
	first, err := NewGradingService(client, loggedIn(), validator.New(), testServiceLogger()).Grade(ctx, openProblem, "x")
	require.NoError(t, err)
	assert.True(t, first.Correct)

	second, err := NewGradingService(client, staticIdentity{user: other}, validator.New(), testServiceLogger()).Grade(ctx, openProblem, "x")
	require.NoError(t, err)
	assert.False(t, second.Correct)
	assert.Equal(t, "not for you", second.Explanation)

	client.AssertExpectations(t)
}

func TestGradingServiceFailureIsNotRemembered(t *testing.T) {
	client := new(MockAnswerAPI)
	transport := &api.Error{Kind: api.KindTransport, Op: "submit_answer", Err: errors.New("refused")}
	client.On("SubmitAnswer", mock.Anything, mock.Anything, mock.Anything).Return(models.GradeResult{}, transport).Once()
	client.On("SubmitAnswer", mock.Anything, mock.Anything, mock.Anything).Return(models.GradeResult{Correct: false}, nil).Once()

	svc := NewGradingService(client, loggedIn(), validator.New(), testServiceLogger())

	_, err := svc.Grade(context.Background(), openProblem, "x")
	require.Error(t, err)
	assert.True(t, api.IsTransport(err))

	result, err := svc.Grade(context.Background(), openProblem, "x")
	require.NoError(t, err)
	assert.False(t, result.Correct)
	client.AssertExpectations(t)
}

func TestGradingServiceRejectsLocalKinds(t *testing.T) {
	svc := NewGradingService(new(MockAnswerAPI), loggedIn(), validator.New(), testServiceLogger())
	_, err := svc.Grade(context.Background(), models.Problem{ID: "p", Kind: models.SingleChoice}, "x")
	assert.ErrorIs(t, err, ErrGradingNotAllowed)
}

func TestGradingServiceDrivesControllerRetry(t *testing.T) {
	client := new(MockAnswerAPI)
	client.On("SubmitAnswer", mock.Anything, mock.Anything, mock.Anything).
		Return(models.GradeResult{}, &api.Error{Kind: api.KindTransport, Err: errors.New("down")}).Once()
	client.On("SubmitAnswer", mock.Anything, mock.Anything, mock.Anything).
		Return(models.GradeResult{Correct: true}, nil).Once()

	svc := NewGradingService(client, loggedIn(), validator.New(), testServiceLogger())
	c, err := lesson.NewWithProblems([]models.Problem{openProblem}, lesson.Options{})
	require.NoError(t, err)

	_, err = c.SubmitFreeText(context.Background(), svc, "int a = 6;")
	require.Error(t, err)
	assert.Equal(t, lesson.Answering, c.State())
	assert.True(t, c.RetryPending())
	assert.Zero(t, c.Correct()+c.Incorrect())

	_, err = c.SubmitFreeText(context.Background(), svc, "int a = 6;")
	require.NoError(t, err)
	assert.Equal(t, lesson.AnswerShown, c.State())
	assert.Equal(t, 1, c.Correct())
}

// ===== PROBLEM FEED =====

func newFeed(t *testing.T) (*ProblemFeed, *apitest.Server) {
	t.Helper()
	return newCachedFeed(t, nil)
}

func newCachedFeed(t *testing.T, c cache.CacheService) (*ProblemFeed, *apitest.Server) {
	t.Helper()
	fake := apitest.NewServer(nil, nil)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client := api.NewClient(srv.URL, api.WithTimeout(2*time.Second))
	return NewProblemFeed(client, loggedIn(), c, time.Hour, validator.New(), testServiceLogger()), fake
}

func TestProblemFeedSendsCompletedIDs(t *testing.T) {
	feed, fake := newFeed(t)
	ctx := context.Background()

	first, err := feed.Next(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	_, ok := fake.LastRequest("/user/task/random")
	assert.True(t, ok)

	feed.MarkCompleted(ctx, "f2d7a6f58d8c41eb9bd2726306620065")
	next, err := feed.Next(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, "f2d7a6f58d8c41eb9bd2726306620065", next.ID)

	req, ok := fake.LastRequest("/task/next")
	require.True(t, ok)
	assert.Contains(t, string(req.Body), "f2d7a6f58d8c41eb9bd2726306620065")
}

func TestProblemFeedLoadIsDistinct(t *testing.T) {
	feed, _ := newFeed(t)

	problems, err := feed.Load(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, problems, 3)
	ids := map[string]bool{}
	for _, p := range problems {
		assert.False(t, ids[p.ID])
		ids[p.ID] = true
	}
}

func TestProblemFeedExhausted(t *testing.T) {
	feed, _ := newFeed(t)
	for _, task := range apitest.DefaultTasks() {
		feed.MarkCompleted(context.Background(), task.Problem.ID)
	}
	_, err := feed.Next(context.Background())
	assert.ErrorIs(t, err, ErrNoProblemsLeft)
}

func TestProblemFeedRestoresCompletedFromCache(t *testing.T) {
	ctx := context.Background()
	shared := cache.NewMemoryCache()

	before, _ := newCachedFeed(t, shared)
	before.MarkCompleted(ctx, "f2d7a6f58d8c41eb9bd2726306620065")

	after, fake := newCachedFeed(t, shared)
	_, err := after.Next(ctx)
	require.NoError(t, err)

	_, ok := fake.LastRequest("/user/task/random")
	assert.False(t, ok, "a restored list skips the random first problem")
	req, ok := fake.LastRequest("/task/next")
	require.True(t, ok)
	assert.Contains(t, string(req.Body), "f2d7a6f58d8c41eb9bd2726306620065")
	assert.Equal(t, []string{"f2d7a6f58d8c41eb9bd2726306620065"}, after.Completed())
}

func TestProblemFeedResetDropsLearnerEntries(t *testing.T) {
	ctx := context.Background()
	shared := cache.NewMemoryCache()
	require.NoError(t, shared.Set(ctx, "feed:u2:completed", []string{"p9"}, 0))

	feed, _ := newCachedFeed(t, shared)
	feed.MarkCompleted(ctx, "p1")

	var cached []string
	require.NoError(t, shared.Get(ctx, "feed:u1:completed", &cached))
	assert.Equal(t, []string{"p1"}, cached)

	feed.Reset(ctx, "u1")
	assert.Empty(t, feed.Completed())
	assert.ErrorIs(t, shared.Get(ctx, "feed:u1:completed", &cached), cache.ErrCacheMiss)
	assert.NoError(t, shared.Get(ctx, "feed:u2:completed", &cached), "other learners keep their entries")
}

func TestProblemFeedServerError(t *testing.T) {
	feed, fake := newFeed(t)
	fake.FailWith("/user/task/random", http.StatusInternalServerError)

	_, err := feed.Next(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsStatus(err))
}

// ===== LESSON SERVICE =====

type recordingProgress struct {
	rewards []lesson.Reward
	units   []int
}

func (p *recordingProgress) CompleteLesson(ctx context.Context, reward lesson.Reward) error {
	p.rewards = append(p.rewards, reward)
	return nil
}

func (p *recordingProgress) UnlockUnit(ctx context.Context, unit int) error {
	p.units = append(p.units, unit)
	return nil
}

func solve(t *testing.T, c *lesson.Controller) {
	t.Helper()
	for !c.State().IsOver() {
		problem, ok := c.Current()
		require.True(t, ok)
		switch problem.Kind {
		case models.SingleChoice:
			require.NoError(t, c.SelectChoice(problem.CorrectIndex))
			_, err := c.Check()
			require.NoError(t, err)
		case models.TokenAssembly:
			for _, i := range problem.CorrectOrder {
				require.NoError(t, c.PickToken(i))
			}
			_, err := c.Check()
			require.NoError(t, err)
		case models.FreeText:
			ticket, err := c.BeginFreeText("answer")
			require.NoError(t, err)
			c.CompleteFreeText(ticket, models.GradeResult{Correct: true}, nil)
		}
		if c.State() == lesson.AnswerShown {
			require.NoError(t, c.Continue())
		}
	}
}

func TestLessonServiceLifecycle(t *testing.T) {
	publisher := events.NewMockEventPublisher(testSlog())
	progress := &recordingProgress{}
	svc := NewLessonService(LessonDeps{
		Identity:  loggedIn(),
		Progress:  progress,
		Publisher: publisher,
		Logger:    testServiceLogger(),
		Rand:      rand.New(rand.NewSource(1)),
	})
	ctx := context.Background()

	c, err := svc.Start(ctx, LessonOptions{})
	require.NoError(t, err)
	solve(t, c)
	require.Equal(t, lesson.LessonComplete, c.State())

	summary, err := svc.Finish(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Correct)
	assert.Equal(t, []lesson.Reward{lesson.LessonReward}, progress.rewards)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventLessonStarted, published[0].Type)
	assert.Equal(t, events.EventLessonFinished, published[1].Type)
	finished := published[1].Data.(events.LessonFinishedEvent)
	assert.Equal(t, "lesson_complete", finished.State)
	assert.Equal(t, c.ID(), finished.AttemptID)
}

func TestLessonServiceFastForward(t *testing.T) {
	progress := &recordingProgress{}
	svc := NewLessonService(LessonDeps{
		Identity: loggedIn(),
		Progress: progress,
		Logger:   testServiceLogger(),
	})

	c, err := svc.Start(context.Background(), LessonOptions{FastForwardUnit: 2})
	require.NoError(t, err)
	require.Equal(t, lesson.FastForwardStart, c.State())
	require.NoError(t, c.ConfirmStart())
	solve(t, c)

	_, err = svc.Finish(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, progress.units)
	assert.Empty(t, progress.rewards)
}

func TestLessonServiceRemote(t *testing.T) {
	feed, _ := newFeed(t)

	t.Run("needs login", func(t *testing.T) {
		svc := NewLessonService(LessonDeps{Identity: staticIdentity{user: models.EmptyUser()}, Feed: feed, Logger: testServiceLogger()})
		_, err := svc.Start(context.Background(), LessonOptions{Remote: true})
		assert.ErrorIs(t, err, ErrRemoteNeedsLogin)
	})

	t.Run("marks solved problems completed", func(t *testing.T) {
		svc := NewLessonService(LessonDeps{Identity: loggedIn(), Feed: feed, Logger: testServiceLogger(), Progress: &recordingProgress{}})
		c, err := svc.Start(context.Background(), LessonOptions{Remote: true})
		require.NoError(t, err)
		solve(t, c)

		_, err = svc.Finish(context.Background(), c)
		require.NoError(t, err)
		assert.Len(t, feed.Completed(), 3)
	})
}

func TestLessonServiceQuit(t *testing.T) {
	publisher := events.NewMockEventPublisher(testSlog())
	svc := NewLessonService(LessonDeps{Identity: loggedIn(), Publisher: publisher, Logger: testServiceLogger()})

	c, err := svc.Start(context.Background(), LessonOptions{})
	require.NoError(t, err)
	require.False(t, c.RequestQuit())
	svc.Quit(context.Background(), c)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 2)
	assert.Equal(t, events.EventLessonQuit, published[1].Type)
}

func TestParseLessonOptions(t *testing.T) {
	tests := []struct {
		query   string
		want    LessonOptions
		wantErr bool
	}{
		{query: "", want: LessonOptions{}},
		{query: "practice", want: LessonOptions{Practice: true}},
		{query: "?fast-forward=2", want: LessonOptions{FastForwardUnit: 2}},
		{query: "remote&practice", want: LessonOptions{Practice: true, Remote: true}},
		{query: "fast-forward=0", wantErr: true},
		{query: "fast-forward=99", wantErr: true},
		{query: "fast-forward=two", wantErr: true},
		{query: "practice&fast-forward=2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := ParseLessonOptions(tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLessonOptions)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ===== ACTIVITY RECORDER =====

func TestActivityRecorderOverGoChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.EventConfig{Enabled: true, Publisher: "gochannel", LessonTopic: "lesson-events"}
	bus, err := cfg.CreateEventBus(testSlog())
	require.NoError(t, err)
	defer bus.Publisher.Close()

	activity := &activityCounter{}
	recorder := NewActivityRecorder(activity, testServiceLogger())
	publisher, err := recorder.Wire(ctx, bus)
	require.NoError(t, err)

	require.NoError(t, publisher.PublishLessonEvent(ctx, events.NewLessonFinishedEvent(events.LessonFinishedEvent{
		AttemptID:  "a1",
		State:      "fast_forward_fail",
		FinishedAt: time.Now(),
	})))
	require.NoError(t, publisher.PublishLessonEvent(ctx, events.NewLessonFinishedEvent(events.LessonFinishedEvent{
		AttemptID:  "a2",
		State:      "lesson_complete",
		FinishedAt: time.Now(),
	})))

	assert.Eventually(t, func() bool { return activity.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestActivityRecorderWithoutSubscriber(t *testing.T) {
	cfg := config.EventConfig{Enabled: false}
	bus, err := cfg.CreateEventBus(testSlog())
	require.NoError(t, err)

	store := session.NewStore(nil, nil, nil)
	recorder := NewActivityRecorder(store, testServiceLogger())
	publisher, err := recorder.Wire(context.Background(), bus)
	require.NoError(t, err)

	require.NoError(t, publisher.PublishLessonEvent(context.Background(), events.NewLessonFinishedEvent(events.LessonFinishedEvent{
		AttemptID:  "a1",
		State:      "lesson_complete",
		FinishedAt: time.Now(),
	})))

	assert.Equal(t, 1, store.Streak())
	assert.Len(t, bus.Publisher.(*events.MockEventPublisher).GetPublishedEvents(), 1)
}

// ===== ERRORS =====

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(&api.Error{Kind: api.KindTransport, Err: errors.New("x")}), "reach the server")
	assert.Contains(t, UserMessage(&api.Error{Kind: api.KindStatus, Status: http.StatusUnauthorized}), "Wrong username")
	assert.Contains(t, UserMessage(&api.Error{Kind: api.KindStatus, Status: http.StatusConflict}), "taken")
	assert.Contains(t, UserMessage(&api.Error{Kind: api.KindStatus, Status: http.StatusTeapot}), "418")
	assert.Equal(t, "Log in first.", UserMessage(session.ErrNotLoggedIn))

	verrs := ValidationErrors{{Field: "email", Message: "must be a valid email address"}}
	assert.Equal(t, "email must be a valid email address", UserMessage(verrs))
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsNotFound(&api.Error{Kind: api.KindStatus, Status: http.StatusNotFound}))
	assert.True(t, IsUnauthorized(session.ErrNotLoggedIn))
	assert.True(t, IsConflict(lesson.ErrGradingInFlight))
	assert.True(t, IsValidation(ErrInvalidLessonOptions))
	assert.True(t, IsBusinessRule(NewBusinessRuleError("r", "m", nil)))

	formatted := FormatError(&api.Error{Kind: api.KindDecode, Err: errors.New("eof")})
	assert.Equal(t, "decode", formatted["type"])
}

func TestExclusiveLessonModesAreABusinessRule(t *testing.T) {
	_, err := ParseLessonOptions("practice&fast-forward=2")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrInvalidLessonOptions)
	assert.True(t, IsBusinessRule(err))
	assert.Equal(t, "Practice lessons can't fast-forward.", UserMessage(err))

	formatted := FormatError(err)
	assert.Equal(t, "business_rule", formatted["type"])
	assert.Equal(t, "exclusive_lesson_modes", formatted["rule"])
}

func TestLogOperationClassifiesErrors(t *testing.T) {
	var buf bytes.Buffer
	logger := NewServiceLogger(slog.New(slog.NewJSONHandler(&buf, nil)), LogConfig{Service: "learner-client", Component: "test"})

	wrapped := fmt.Errorf("login failed: %w", ValidationErrors{{Field: "username", Message: "is required"}})
	logger.LogOperation(context.Background(), "log_in", "", "", "user", time.Millisecond, wrapped)

	var entry map[string]any
	line, _, _ := bytes.Cut(buf.Bytes(), []byte("\n"))
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "validation", entry["error_type"])
	assert.EqualValues(t, 1, entry["validation_errors_count"])

	buf.Reset()
	logger.LogOperation(context.Background(), "grade_free_text", "u1", "p1", "problem", time.Millisecond,
		&api.Error{Kind: api.KindStatus, Op: "submit_answer", Status: http.StatusBadGateway})
	line, _, _ = bytes.Cut(buf.Bytes(), []byte("\n"))
	require.NoError(t, json.Unmarshal(line, &entry))
	assert.Equal(t, "status", entry["error_type"])
	assert.EqualValues(t, http.StatusBadGateway, entry["http_status"])
}
