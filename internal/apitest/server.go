// Package apitest is an in-memory implementation of the learning server API,
// used by tests and by cmd/apistub for local development.
package apitest

import (
	"bytes"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/utils"
	"github.com/gin-gonic/gin"
)

// RecordedRequest is a request as the server saw it
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type account struct {
	password string
	profile  api.Profile
}

// Server holds the fake server state. All methods are safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by username
	byID     map[string]string   // user id -> username
	tokens   map[string]string   // token -> user id
	tasks    []Task
	answers  map[string]api.AnswerRequest

	failures map[string]int
	delays   map[string]time.Duration
	requests []RecordedRequest
	rng      *rand.Rand

	logger utils.Logger
	engine *gin.Engine
}

// NewServer creates a server seeded with tasks (DefaultTasks when nil)
func NewServer(logger utils.Logger, tasks []Task) *Server {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	if tasks == nil {
		tasks = DefaultTasks()
	}

	s := &Server{
		accounts: make(map[string]*account),
		byID:     make(map[string]string),
		tokens:   make(map[string]string),
		tasks:    tasks,
		answers:  make(map[string]api.AnswerRequest),
		failures: make(map[string]int),
		delays:   make(map[string]time.Duration),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
	s.engine = s.setupRouter()
	return s
}

// Handler returns the gin engine serving the API
func (s *Server) Handler() http.Handler {
	return s.engine
}

// FailWith makes every request to path answer status until ClearFailures
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// DelayPath makes requests to path sleep for d before being handled
func (s *Server) DelayPath(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[path] = d
}

// ClearFailures removes injected failures and delays
func (s *Server) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = make(map[string]int)
	s.delays = make(map[string]time.Duration)
}

// Requests returns the requests received so far
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request to path
func (s *Server) LastRequest(path string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		if s.requests[i].Path == path {
			return s.requests[i], true
		}
	}
	return RecordedRequest{}, false
}

// Profile returns the stored profile of userID
func (s *Server) Profile(userID string) (api.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	username, ok := s.byID[userID]
	if !ok {
		return api.Profile{}, false
	}
	return s.accounts[username].profile, true
}

// ActiveTokens counts tokens that have not been logged out
func (s *Server) ActiveTokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tokens)
}

// recorder keeps a copy of every request and applies injected failures
func (s *Server) recorder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		path := c.Request.URL.Path
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: c.Request.Method,
			Path:   path,
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		status, fail := s.failures[path]
		delay := s.delays[path]
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if fail {
			c.AbortWithStatusJSON(status, ErrorResponse{Message: "injected failure"})
			return
		}

		start := time.Now()
		c.Next()
		s.logger.LogRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).String(),
			"request_id", c.GetHeader("X-Request-ID"))
	}
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.recorder())

	router.GET("/test", s.handlePing)

	user := router.Group("/user")
	{
		user.POST("/register", s.handleRegister)
		user.POST("/login", s.handleLogin)
		user.POST("/logout", s.requireAuth, s.handleLogout)
		user.GET("/task/random", s.handleRandomTask)
		user.GET("/:id", s.requireAuth, s.handleGetProfile)
	}
	router.PUT("/user", s.requireAuth, s.handleUpdateProfile)

	router.POST("/task/next", s.handleNextTask)
	router.POST("/answer", s.handleAnswer)

	return router
}
