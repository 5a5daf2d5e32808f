package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/code-samurai/learner-client/internal/api"
	apperrors "github.com/code-samurai/learner-client/internal/errors"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAPI implements API for testing
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) Authenticate(ctx context.Context, creds models.Credentials) (api.Session, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(api.Session), args.Error(1)
}

func (m *MockAPI) Register(ctx context.Context, reg models.Registration) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockAPI) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAPI) FetchProfile(ctx context.Context, token, userID string) (api.Profile, error) {
	args := m.Called(ctx, token, userID)
	return args.Get(0).(api.Profile), args.Error(1)
}

func (m *MockAPI) UpdateProfile(ctx context.Context, token string, profile api.Profile) error {
	args := m.Called(ctx, token, profile)
	return args.Error(0)
}

var (
	testCreds = models.Credentials{Username: "samurai", Password: "katana"}
	testPhone = "+48 123 456 789"
)

func testProfile() api.Profile {
	return api.Profile{
		ID:       "u1",
		Username: "samurai",
		Email:    "samurai@example.com",
		Phone:    &testPhone,
		Bio:      "ronin",
		Friends:  []string{"u2"},
		Level:    models.Level{Level: 2, XP: 12},
		Progress: models.CourseProgress{Course: 1, Unit: 1, Sector: 2, Level: 3, Task: 1},
	}
}

func loggedInStore(t *testing.T) (*Store, *MockAPI) {
	t.Helper()
	m := new(MockAPI)
	m.On("Authenticate", mock.Anything, testCreds).Return(api.Session{UserID: "u1", Token: "Bearer t1"}, nil).Once()
	m.On("FetchProfile", mock.Anything, "Bearer t1", "u1").Return(testProfile(), nil).Once()

	s := NewStore(m, nil, nil)
	require.NoError(t, s.LogIn(context.Background(), testCreds))
	return s, m
}

func TestLogIn(t *testing.T) {
	s, m := loggedInStore(t)

	u := s.Snapshot()
	assert.True(t, u.LoggedIn)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "Bearer t1", u.AuthToken)
	assert.Equal(t, "samurai@example.com", u.Email)
	assert.Equal(t, testPhone, u.Phone)
	assert.Equal(t, []string{"u2"}, u.Friends)
	assert.Equal(t, 12, u.Level.XP)
	assert.Empty(t, u.PasswordHash, "password is never kept")
	m.AssertExpectations(t)

	assert.ErrorIs(t, s.LogIn(context.Background(), testCreds), ErrAlreadyLoggedIn)
}

func TestLogInFailureLeavesStateUntouched(t *testing.T) {
	m := new(MockAPI)
	m.On("Authenticate", mock.Anything, testCreds).Return(api.Session{}, &api.Error{Kind: api.KindStatus, Op: "authenticate", Status: 401})

	s := NewStore(m, nil, nil)
	before := s.Snapshot()

	err := s.LogIn(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, api.IsStatus(err))
	assert.Equal(t, before, s.Snapshot())
	m.AssertNotCalled(t, "FetchProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogInProfileFailureIsNotFatal(t *testing.T) {
	m := new(MockAPI)
	m.On("Authenticate", mock.Anything, testCreds).Return(api.Session{UserID: "u1", Token: "t1"}, nil)
	m.On("FetchProfile", mock.Anything, "t1", "u1").Return(api.Profile{}, errors.New("boom"))

	s := NewStore(m, nil, nil)
	require.NoError(t, s.LogIn(context.Background(), testCreds))

	u := s.Snapshot()
	assert.True(t, u.LoggedIn)
	assert.Equal(t, "samurai", u.Username)
	assert.Empty(t, u.Email)
}

func TestInputsValidatedBeforeNetwork(t *testing.T) {
	m := new(MockAPI)
	s := NewStore(m, nil, nil)

	err := s.LogIn(context.Background(), models.Credentials{Username: "ab", Password: ""})
	var verrs apperrors.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "username")
	assert.Contains(t, verrs.Fields(), "password")

	err = s.Register(context.Background(), models.Registration{Username: "samurai", Password: "katana", Email: "nope"})
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "email")

	m.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestRegisterLogsIn(t *testing.T) {
	reg := models.Registration{Username: "samurai", Password: "katana", Email: "samurai@example.com"}
	m := new(MockAPI)
	m.On("Register", mock.Anything, reg).Return(nil).Once()
	m.On("Authenticate", mock.Anything, testCreds).Return(api.Session{UserID: "u1", Token: "t1"}, nil).Once()
	m.On("FetchProfile", mock.Anything, "t1", "u1").Return(testProfile(), nil).Once()

	s := NewStore(m, nil, nil)
	require.NoError(t, s.Register(context.Background(), reg))
	assert.True(t, s.LoggedIn())
	m.AssertExpectations(t)
}

func TestRegisterFailure(t *testing.T) {
	reg := models.Registration{Username: "samurai", Password: "katana"}
	m := new(MockAPI)
	m.On("Register", mock.Anything, reg).Return(&api.Error{Kind: api.KindStatus, Status: 409})

	s := NewStore(m, nil, nil)
	require.Error(t, s.Register(context.Background(), reg))
	assert.False(t, s.LoggedIn())
	m.AssertNotCalled(t, "Authenticate", mock.Anything, mock.Anything)
}

func TestLogOutResetsEverything(t *testing.T) {
	s, m := loggedInStore(t)
	m.On("Logout", mock.Anything, "Bearer t1").Return(nil).Once()

	require.NoError(t, s.LogOut(context.Background()))
	assert.Equal(t, models.EmptyUser(), s.Snapshot())
	assert.Equal(t, models.CourseProgress{}, s.Snapshot().Progress)

	assert.ErrorIs(t, s.LogOut(context.Background()), ErrNotLoggedIn)
}

func TestLogOutFailureKeepsSession(t *testing.T) {
	s, m := loggedInStore(t)
	m.On("Logout", mock.Anything, "Bearer t1").Return(&api.Error{Kind: api.KindTransport, Err: errors.New("offline")})

	before := s.Snapshot()
	require.Error(t, s.LogOut(context.Background()))
	assert.Equal(t, before, s.Snapshot())
}

func TestLogOutIsAtomicForReaders(t *testing.T) {
	s, m := loggedInStore(t)
	m.On("Logout", mock.Anything, "Bearer t1").Return(nil)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	mixed := make(chan models.User, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			u := s.Snapshot()
			consistent := (u.LoggedIn && u.AuthToken != "" && u.Username != "") ||
				(!u.LoggedIn && u.AuthToken == "" && u.Username == "" && u.ID == "")
			if !consistent {
				select {
				case mixed <- u:
				default:
				}
				return
			}
		}
	}()

	require.NoError(t, s.LogOut(context.Background()))
	close(stop)
	wg.Wait()

	select {
	case u := <-mixed:
		t.Fatalf("observed mixed state: %+v", u)
	default:
	}
}

func TestUpdateProfileWaitsForLogout(t *testing.T) {
	s, m := loggedInStore(t)

	started := make(chan struct{})
	release := make(chan struct{})
	m.On("Logout", mock.Anything, "Bearer t1").Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(nil)

	done := make(chan error, 1)
	go func() { done <- s.LogOut(context.Background()) }()
	<-started

	bio := "late"
	updateErr := make(chan error, 1)
	go func() { updateErr <- s.UpdateProfile(context.Background(), models.ProfileUpdate{Bio: &bio}) }()

	close(release)
	require.NoError(t, <-done)
	assert.ErrorIs(t, <-updateErr, ErrNotLoggedIn)
	assert.Equal(t, models.EmptyUser(), s.Snapshot())
	m.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProfile(t *testing.T) {
	s, m := loggedInStore(t)

	bio := "wandering"
	expected := api.ProfileFromUser(func() models.User {
		u := s.Snapshot()
		u.Bio = bio
		return u
	}())
	m.On("UpdateProfile", mock.Anything, "Bearer t1", expected).Return(nil).Once()

	require.NoError(t, s.UpdateProfile(context.Background(), models.ProfileUpdate{Bio: &bio}))
	assert.Equal(t, "wandering", s.Snapshot().Bio)
	assert.Equal(t, "samurai@example.com", s.Snapshot().Email)
	m.AssertExpectations(t)

	t.Run("failure leaves state", func(t *testing.T) {
		other := "changed"
		m.On("UpdateProfile", mock.Anything, "Bearer t1", mock.Anything).Return(errors.New("503")).Once()
		require.Error(t, s.UpdateProfile(context.Background(), models.ProfileUpdate{Bio: &other}))
		assert.Equal(t, "wandering", s.Snapshot().Bio)
	})

	t.Run("invalid phone", func(t *testing.T) {
		bad := "call me"
		err := s.UpdateProfile(context.Background(), models.ProfileUpdate{Phone: &bad})
		var verrs apperrors.ValidationErrors
		require.ErrorAs(t, err, &verrs)
	})

	t.Run("logged out", func(t *testing.T) {
		guest := NewStore(new(MockAPI), nil, nil)
		assert.ErrorIs(t, guest.UpdateProfile(context.Background(), models.ProfileUpdate{Bio: &bio}), ErrNotLoggedIn)
	})
}

func TestCompleteLesson(t *testing.T) {
	t.Run("logged in pushes to server", func(t *testing.T) {
		s, m := loggedInStore(t)
		m.On("UpdateProfile", mock.Anything, "Bearer t1", mock.MatchedBy(func(p api.Profile) bool {
			return p.Level.XP == 15 && p.Progress.Level == 4
		})).Return(nil).Once()

		require.NoError(t, s.CompleteLesson(context.Background(), lesson.LessonReward))
		u := s.Snapshot()
		assert.Equal(t, 15, u.Level.XP)
		assert.Equal(t, 4, u.Progress.Level)
		m.AssertExpectations(t)
	})

	t.Run("guest stays local", func(t *testing.T) {
		m := new(MockAPI)
		s := NewStore(m, nil, nil)
		require.NoError(t, s.CompleteLesson(context.Background(), lesson.LessonReward))
		assert.Equal(t, 3, s.Snapshot().Level.XP)
		m.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("push failure keeps old values", func(t *testing.T) {
		s, m := loggedInStore(t)
		m.On("UpdateProfile", mock.Anything, "Bearer t1", mock.Anything).Return(errors.New("offline"))

		require.Error(t, s.CompleteLesson(context.Background(), lesson.LessonReward))
		assert.Equal(t, 12, s.Snapshot().Level.XP)
	})
}

func TestUnlockUnit(t *testing.T) {
	m := new(MockAPI)
	s := NewStore(m, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.UnlockUnit(ctx, 3))
	assert.Equal(t, 3, s.Snapshot().Progress.Unit)

	require.NoError(t, s.UnlockUnit(ctx, 2))
	assert.Equal(t, 3, s.Snapshot().Progress.Unit, "never moves backwards")

	assert.ErrorIs(t, s.UnlockUnit(ctx, 0), ErrInvalidUnit)
}

func TestRecordActiveDay(t *testing.T) {
	s := NewStore(new(MockAPI), nil, nil)
	today := time.Date(2025, 5, 10, 18, 0, 0, 0, time.Local)
	s.SetClock(func() time.Time { return today })

	assert.Equal(t, 0, s.RecordActiveDay(today.AddDate(0, 0, -2)))
	assert.Equal(t, 1, s.RecordActiveDay(today))
	assert.Equal(t, 3, s.RecordActiveDay(today.AddDate(0, 0, -1)))
	assert.Equal(t, 3, s.RecordActiveDay(today), "recording twice is idempotent")
	assert.Equal(t, 3, s.Streak())
	assert.Len(t, s.Snapshot().ActiveDays, 3)
}

func TestReadsDoNotWaitForLogIn(t *testing.T) {
	m := new(MockAPI)
	started := make(chan struct{})
	release := make(chan struct{})
	m.On("Authenticate", mock.Anything, testCreds).Run(func(args mock.Arguments) {
		close(started)
		<-release
	}).Return(api.Session{UserID: "u1", Token: "Bearer t1"}, nil)
	m.On("FetchProfile", mock.Anything, "Bearer t1", "u1").Return(testProfile(), nil)

	s := NewStore(m, nil, nil)
	today := time.Date(2025, 5, 10, 18, 0, 0, 0, time.Local)
	s.SetClock(func() time.Time { return today })
	s.RecordActiveDay(today)

	done := make(chan error, 1)
	go func() { done <- s.LogIn(context.Background(), testCreds) }()
	<-started

	streak := make(chan int, 1)
	go func() { streak <- s.Streak() }()

	select {
	case got := <-streak:
		assert.Equal(t, 1, got)
	case <-time.After(time.Second):
		t.Fatal("Streak blocked behind an in-flight login")
	}
	assert.False(t, s.LoggedIn())

	close(release)
	require.NoError(t, <-done)
	assert.True(t, s.LoggedIn())
}
