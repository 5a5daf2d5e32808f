package apitest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/code-samurai/learner-client/internal/api"
	"github.com/code-samurai/learner-client/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ===== RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

type answerResponse struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// simpleID renders ids without dashes
func simpleID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ===== AUTH =====

func (s *Server) requireAuth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	s.mu.Lock()
	userID, ok := s.tokens[token]
	s.mu.Unlock()

	if token == "" || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid token"})
		return
	}
	c.Set("user_id", userID)
	c.Set("token", token)
	c.Next()
}

func (s *Server) handlePing(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "username and password are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[req.Username]; exists {
		c.JSON(http.StatusConflict, ErrorResponse{Message: "username taken"})
		return
	}

	profile := api.Profile{
		ID:       simpleID(),
		Username: req.Username,
		Email:    req.Email,
		Friends:  []string{},
		Progress: models.CourseProgress{Unit: 1},
	}
	if req.Phone != "" {
		phone := req.Phone
		profile.Phone = &phone
	}
	s.accounts[req.Username] = &account{password: req.Password, profile: profile}
	s.byID[profile.ID] = req.Username

	c.Status(http.StatusCreated)
}

func (s *Server) handleLogin(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
		return
	}

	s.mu.Lock()
	acc, ok := s.accounts[req.Username]
	if !ok || acc.password != req.Password {
		s.mu.Unlock()
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid credentials"})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = acc.profile.ID
	userID := acc.profile.ID
	s.mu.Unlock()

	c.Header("Authorization", "Bearer "+token)
	c.String(http.StatusOK, userID)
}

func (s *Server) handleLogout(c *gin.Context) {
	s.mu.Lock()
	delete(s.tokens, c.GetString("token"))
	s.mu.Unlock()
	c.Status(http.StatusOK)
}

// ===== PROFILE =====

func (s *Server) handleGetProfile(c *gin.Context) {
	id := c.Param("id")
	if id != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "not your profile"})
		return
	}

	profile, ok := s.Profile(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "user not found"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(c *gin.Context) {
	var req api.Profile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
		return
	}

	userID := c.GetString("user_id")
	if req.ID != "" && req.ID != userID {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "not your profile"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.accounts[s.byID[userID]]
	req.ID = userID
	req.Username = acc.profile.Username
	if req.Friends == nil {
		req.Friends = []string{}
	}
	acc.profile = req
	c.Status(http.StatusOK)
}

// ===== TASKS =====

func (s *Server) writeTask(c *gin.Context, task Task) {
	payload, err := api.EncodeProblem(task.Problem)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/json", payload)
}

func (s *Server) handleRandomTask(c *gin.Context) {
	s.mu.Lock()
	if len(s.tasks) == 0 {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "no tasks"})
		return
	}
	task := s.tasks[s.rng.Intn(len(s.tasks))]
	s.mu.Unlock()

	s.writeTask(c, task)
}

func (s *Server) handleNextTask(c *gin.Context) {
	var completed []string
	if err := c.ShouldBindJSON(&completed); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "body must be a list of task ids"})
		return
	}

	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	s.mu.Lock()
	var next *Task
	for i := range s.tasks {
		if !done[s.tasks[i].Problem.ID] {
			next = &s.tasks[i]
			break
		}
	}
	s.mu.Unlock()

	if next == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "no tasks left"})
		return
	}
	s.writeTask(c, *next)
}

func (s *Server) handleAnswer(c *gin.Context) {
	var req api.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content.OpenQuestion == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid answer"})
		return
	}

	s.mu.Lock()
	var task *Task
	for i := range s.tasks {
		if s.tasks[i].Problem.ID == req.TaskID {
			task = &s.tasks[i]
			break
		}
	}
	if task == nil {
		s.mu.Unlock()
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "task not found"})
		return
	}
	if task.Problem.Kind != models.FreeText {
		s.mu.Unlock()
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "task is graded on the client"})
		return
	}
	id := simpleID()
	s.answers[id] = req
	result := grade(*task, req.Content.OpenQuestion.Content)
	s.mu.Unlock()

	c.Header("Location", fmt.Sprintf("/answer/%s", id))
	c.JSON(http.StatusCreated, result)
}

func grade(task Task, text string) answerResponse {
	lower := strings.ToLower(text)
	for _, kw := range task.Keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			return answerResponse{
				Correct:     false,
				Explanation: fmt.Sprintf("The answer should use %s.", kw),
			}
		}
	}
	return answerResponse{Correct: true, Explanation: task.Explanation}
}
