// Package session owns the process-wide learner record. Every mutation goes
// through a Store method; readers take immutable snapshots.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/utils"
	"github.com/code-samurai/learner-client/internal/validator"
)

// API is the subset of the remote client the store needs
type API interface {
	Authenticate(ctx context.Context, creds models.Credentials) (api.Session, error)
	Register(ctx context.Context, reg models.Registration) error
	Logout(ctx context.Context, token string) error
	FetchProfile(ctx context.Context, token, userID string) (api.Profile, error)
	UpdateProfile(ctx context.Context, token string, profile api.Profile) error
}

// Store guards the session user. state is held only for reads, the final
// commit and the clock; op serialises whole logical operations so that, for
// example, a profile update cannot interleave with a logout. Read paths never
// take op.
type Store struct {
	state sync.RWMutex
	op    sync.Mutex
	user  models.User

	api       API
	validator *validator.Validator
	logger    utils.Logger
	now       func() time.Time
}

// NewStore creates a logged-out store
func NewStore(client API, v *validator.Validator, logger utils.Logger) *Store {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Store{
		user:      models.EmptyUser(),
		api:       client,
		validator: v,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source used for active days
func (s *Store) SetClock(now func() time.Time) {
	s.state.Lock()
	defer s.state.Unlock()
	s.now = now
}

func (s *Store) clock() time.Time {
	s.state.RLock()
	now := s.now
	s.state.RUnlock()
	return now()
}

// Snapshot returns a copy of the current user
func (s *Store) Snapshot() models.User {
	s.state.RLock()
	defer s.state.RUnlock()
	return s.user.Clone()
}

// LoggedIn reports whether a user is logged in
func (s *Store) LoggedIn() bool {
	s.state.RLock()
	defer s.state.RUnlock()
	return s.user.LoggedIn
}

// Streak returns the consecutive active days ending today
func (s *Store) Streak() int {
	now := s.clock()
	return s.Snapshot().Streak(now)
}

func (s *Store) commit(u models.User) {
	s.state.Lock()
	s.user = u
	s.state.Unlock()
}

// ===== AUTHENTICATION =====

// LogIn authenticates and loads the profile. A profile fetch failure after a
// successful login is logged and leaves default profile fields.
func (s *Store) LogIn(ctx context.Context, creds models.Credentials) error {
	if err := s.validator.Validate(creds); err != nil {
		return err
	}

	s.op.Lock()
	defer s.op.Unlock()
	return s.logIn(ctx, creds)
}

func (s *Store) logIn(ctx context.Context, creds models.Credentials) error {
	current := s.Snapshot()
	if current.LoggedIn {
		return ErrAlreadyLoggedIn
	}

	sess, err := s.api.Authenticate(ctx, creds)
	if err != nil {
		s.logger.Warn("Login failed", "username", creds.Username, "error", err)
		return fmt.Errorf("login failed: %w", err)
	}

	next := models.EmptyUser()
	next.ActiveDays = current.ActiveDays
	next.ID = sess.UserID
	next.Username = creds.Username
	next.AuthToken = sess.Token
	next.LoggedIn = true

	profile, err := s.api.FetchProfile(ctx, sess.Token, sess.UserID)
	if err != nil {
		s.logger.Warn("Profile fetch after login failed", "user_id", sess.UserID, "error", err)
	} else {
		next = profile.Apply(next)
	}

	s.commit(next)
	s.logger.Info("User logged in", "user_id", next.ID, "username", next.Username)
	return nil
}

// Register creates the account and logs in with the same credentials
func (s *Store) Register(ctx context.Context, reg models.Registration) error {
	if err := s.validator.Validate(reg); err != nil {
		return err
	}

	s.op.Lock()
	defer s.op.Unlock()

	if s.LoggedIn() {
		return ErrAlreadyLoggedIn
	}

	if err := s.api.Register(ctx, reg); err != nil {
		s.logger.Warn("Registration failed", "username", reg.Username, "error", err)
		return fmt.Errorf("registration failed: %w", err)
	}
	s.logger.Info("User registered", "username", reg.Username)

	return s.logIn(ctx, models.Credentials{Username: reg.Username, Password: reg.Password})
}

// LogOut invalidates the token and resets every field in one step
func (s *Store) LogOut(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	current := s.Snapshot()
	if !current.LoggedIn {
		return ErrNotLoggedIn
	}

	if err := s.api.Logout(ctx, current.AuthToken); err != nil {
		s.logger.Warn("Logout failed", "user_id", current.ID, "error", err)
		return fmt.Errorf("logout failed: %w", err)
	}

	s.commit(models.EmptyUser())
	s.logger.Info("User logged out", "user_id", current.ID)
	return nil
}

// ===== PROFILE =====

// UpdateProfile changes the editable profile fields on the server, then locally
func (s *Store) UpdateProfile(ctx context.Context, update models.ProfileUpdate) error {
	if err := s.validator.Validate(update); err != nil {
		return err
	}

	s.op.Lock()
	defer s.op.Unlock()

	current := s.Snapshot()
	if !current.LoggedIn {
		return ErrNotLoggedIn
	}

	next := current.Clone()
	if update.Email != nil {
		next.Email = *update.Email
	}
	if update.Phone != nil {
		next.Phone = *update.Phone
	}
	if update.Bio != nil {
		next.Bio = *update.Bio
	}

	if err := s.push(ctx, next); err != nil {
		return fmt.Errorf("profile update failed: %w", err)
	}
	s.commit(next)
	return nil
}

// push sends the record to the server when logged in. Guest progress lives
// only in memory.
func (s *Store) push(ctx context.Context, u models.User) error {
	if !u.LoggedIn {
		return nil
	}
	if err := s.api.UpdateProfile(ctx, u.AuthToken, api.ProfileFromUser(u)); err != nil {
		s.logger.Warn("Profile push failed", "user_id", u.ID, "error", err)
		return err
	}
	return nil
}

// ===== LESSON PROGRESS =====

// CompleteLesson adds the reward XP and advances course progress
func (s *Store) CompleteLesson(ctx context.Context, reward lesson.Reward) error {
	s.op.Lock()
	defer s.op.Unlock()

	next := s.Snapshot()
	next.Level.XP += reward.XP
	next.Progress.Level += reward.Levels

	if err := s.push(ctx, next); err != nil {
		return fmt.Errorf("saving lesson progress failed: %w", err)
	}
	s.commit(next)
	s.logger.Info("Lesson progress recorded",
		"user_id", next.ID,
		"xp", next.Level.XP,
		"progress_level", next.Progress.Level)
	return nil
}

// UnlockUnit jumps course progress to unit, never backwards
func (s *Store) UnlockUnit(ctx context.Context, unit int) error {
	if unit <= 0 {
		return ErrInvalidUnit
	}

	s.op.Lock()
	defer s.op.Unlock()

	next := s.Snapshot()
	if next.Progress.Unit >= unit {
		return nil
	}
	next.Progress.Unit = unit
	next.Progress.Sector = 0
	next.Progress.Level = 0
	next.Progress.Task = 0

	if err := s.push(ctx, next); err != nil {
		return fmt.Errorf("unlocking unit failed: %w", err)
	}
	s.commit(next)
	s.logger.Info("Unit unlocked", "user_id", next.ID, "unit", unit)
	return nil
}

// RecordActiveDay marks the local date of at as active and returns the streak
func (s *Store) RecordActiveDay(at time.Time) int {
	s.op.Lock()
	defer s.op.Unlock()

	next := s.Snapshot()
	day := at.Format(models.DayLayout)
	found := false
	for _, d := range next.ActiveDays {
		if d == day {
			found = true
			break
		}
	}
	if !found {
		next.ActiveDays = append(next.ActiveDays, day)
		s.commit(next)
	}
	return next.Streak(s.clock())
}
