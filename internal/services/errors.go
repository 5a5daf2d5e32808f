package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/code-samurai/learner-client/internal/api"
	apperrors "github.com/code-samurai/learner-client/internal/errors"
	"github.com/code-samurai/learner-client/internal/lesson"
	"github.com/code-samurai/learner-client/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrValidationFailed = errors.New("validation failed")
	ErrConflict         = errors.New("resource conflict")

	// Lesson specific errors
	ErrNoProblemsLeft       = errors.New("no problems left to practise")
	ErrInvalidLessonOptions = errors.New("invalid lesson options")
	ErrRemoteNeedsLogin     = errors.New("remote lessons need a logged in user")

	// Grading specific errors
	ErrGradingNotAllowed = errors.New("grading not allowed for this problem kind")

	// Export specific errors
	ErrNothingToExport = errors.New("lesson has no results to export")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

// ===== ERROR HELPERS =====

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrNoProblemsLeft) ||
		api.StatusCode(err) == http.StatusNotFound
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	status := api.StatusCode(err)
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrRemoteNeedsLogin) ||
		errors.Is(err, session.ErrNotLoggedIn) ||
		status == http.StatusUnauthorized ||
		status == http.StatusForbidden
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrInvalidLessonOptions) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, session.ErrAlreadyLoggedIn) ||
		errors.Is(err, lesson.ErrGradingInFlight) ||
		errors.Is(err, lesson.ErrAlreadyFinished) ||
		api.StatusCode(err) == http.StatusConflict
}

// UserMessage renders err as the short inline message shown next to a form
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return fmt.Sprintf("%s %s", ve[0].Field, ve[0].Message)
	}
	var bre *BusinessRuleError
	if errors.As(err, &bre) {
		return bre.Message
	}

	switch {
	case api.IsTransport(err):
		return "Can't reach the server. Check your connection and try again."
	case api.IsDecode(err):
		return "The server sent something unexpected. Try again later."
	case errors.Is(err, session.ErrAlreadyLoggedIn):
		return "You are already logged in."
	case errors.Is(err, ErrRemoteNeedsLogin), errors.Is(err, session.ErrNotLoggedIn):
		return "Log in first."
	case errors.Is(err, lesson.ErrGradingInFlight):
		return "Still grading your answer."
	case IsUnauthorized(err):
		return "Wrong username or password."
	case api.StatusCode(err) == http.StatusConflict:
		return "That username is already taken."
	case IsNotFound(err):
		return "Nothing found."
	case api.IsStatus(err):
		return fmt.Sprintf("The server refused the request (%d).", api.StatusCode(err))
	default:
		return err.Error()
	}
}
