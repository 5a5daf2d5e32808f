package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/code-samurai/learner-client/internal/cache"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/code-samurai/learner-client/internal/validator"
)

// ProblemAPI fetches problems from the server
type ProblemAPI interface {
	FetchFirstProblem(ctx context.Context, token string) (models.Problem, error)
	FetchNextProblem(ctx context.Context, token string, completed []string) (models.Problem, error)
}

// ProblemFeed pulls problems from the server while remembering which ones
// the learner already completed, so the server can exclude them. With a cache
// the completed list outlives the process, keyed by learner.
type ProblemFeed struct {
	mu        sync.Mutex
	client    ProblemAPI
	identity  Identity
	cache     cache.CacheService
	ttl       time.Duration
	validator *validator.Validator
	logger    *ServiceLogger

	completed   []string
	started     bool
	restoredFor string
}

func NewProblemFeed(
	client ProblemAPI,
	identity Identity,
	cacheService cache.CacheService,
	ttl time.Duration,
	v *validator.Validator,
	logger *ServiceLogger,
) *ProblemFeed {
	return &ProblemFeed{
		client:    client,
		identity:  identity,
		cache:     cacheService,
		ttl:       ttl,
		validator: v,
		logger:    logger,
		completed: []string{},
	}
}

func completedKey(userID string) string {
	return fmt.Sprintf("feed:%s:completed", userID)
}

// MarkCompleted records problem ids the learner solved
func (f *ProblemFeed) MarkCompleted(ctx context.Context, ids ...string) {
	f.mu.Lock()
	for _, id := range ids {
		if !slices.Contains(f.completed, id) {
			f.completed = append(f.completed, id)
		}
	}
	completed := append([]string{}, f.completed...)
	f.mu.Unlock()

	userID := f.identity.Snapshot().ID
	if f.cache == nil || userID == "" {
		return
	}
	if err := f.cache.Set(ctx, completedKey(userID), completed, f.ttl); err != nil {
		f.logger.Logger().Warn("Failed to cache completed problems", "user_id", userID, "error", err)
	}
}

// restore merges the cached completed list of userID once per learner
func (f *ProblemFeed) restore(ctx context.Context, userID string) {
	if f.cache == nil || userID == "" {
		return
	}
	f.mu.Lock()
	done := f.restoredFor == userID
	f.mu.Unlock()
	if done {
		return
	}

	var cached []string
	err := f.cache.Get(ctx, completedKey(userID), &cached)
	f.logger.LogCacheAccess(ctx, "restore_completed", completedKey(userID), err == nil)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		f.logger.Logger().Warn("Completed problems cache unavailable", "user_id", userID, "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range cached {
		if !slices.Contains(f.completed, id) {
			f.completed = append(f.completed, id)
		}
	}
	f.restoredFor = userID
}

// Completed returns the solved problem ids in completion order
func (f *ProblemFeed) Completed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.completed...)
}

// Reset forgets progress after userID logs out, including cached entries
func (f *ProblemFeed) Reset(ctx context.Context, userID string) {
	f.mu.Lock()
	f.completed = []string{}
	f.started = false
	f.restoredFor = ""
	f.mu.Unlock()

	if f.cache == nil || userID == "" {
		return
	}
	if err := f.cache.DeletePattern(ctx, fmt.Sprintf("feed:%s:*", userID)); err != nil {
		f.logger.Logger().Warn("Failed to drop cached feed entries", "user_id", userID, "error", err)
	}
}

// Next fetches one problem. The first call asks for a random problem, later
// calls send the completed ids plus exclude.
func (f *ProblemFeed) Next(ctx context.Context, exclude ...string) (models.Problem, error) {
	user := f.identity.Snapshot()
	f.restore(ctx, user.ID)

	f.mu.Lock()
	started := f.started
	excluded := append([]string{}, f.completed...)
	f.mu.Unlock()

	for _, id := range exclude {
		if !slices.Contains(excluded, id) {
			excluded = append(excluded, id)
		}
	}

	token := user.AuthToken

	var (
		problem models.Problem
		err     error
	)
	if !started && len(excluded) == 0 {
		problem, err = f.client.FetchFirstProblem(ctx, token)
	} else {
		problem, err = f.client.FetchNextProblem(ctx, token, excluded)
	}
	if err != nil {
		if IsNotFound(err) {
			return models.Problem{}, ErrNoProblemsLeft
		}
		return models.Problem{}, fmt.Errorf("failed to fetch problem: %w", err)
	}

	if err := f.validator.Problem().ValidateProblem(problem); err != nil {
		return models.Problem{}, fmt.Errorf("server sent an invalid problem: %w", err)
	}

	f.mu.Lock()
	f.started = true
	f.mu.Unlock()
	return problem, nil
}

// Load fetches n distinct problems for one lesson
func (f *ProblemFeed) Load(ctx context.Context, n int) ([]models.Problem, error) {
	problems := make([]models.Problem, 0, n)
	seen := make([]string, 0, n)

	for len(problems) < n {
		problem, err := f.Next(ctx, seen...)
		if err != nil {
			return nil, err
		}
		if slices.Contains(seen, problem.ID) {
			// server ignored the exclusion list
			return nil, fmt.Errorf("server repeated problem %s", problem.ID)
		}
		seen = append(seen, problem.ID)
		problems = append(problems, problem)
	}

	f.logger.Logger().Debug("Loaded remote lesson", "problem_ids", seen)
	return problems, nil
}
