package lesson

import "errors"

// ===== LESSON ERRORS =====

var (
	ErrPoolTooSmall     = errors.New("problem pool has fewer problems than a lesson needs")
	ErrInvalidState     = errors.New("operation not allowed in current lesson state")
	ErrWrongKind        = errors.New("operation does not apply to this problem kind")
	ErrChoiceOutOfRange = errors.New("choice index out of range")
	ErrTokenOutOfRange  = errors.New("token index out of range")
	ErrTokenAlreadyUsed = errors.New("token already picked")
	ErrTokenNotPicked   = errors.New("token is not picked")
	ErrEmptyAnswer      = errors.New("answer is empty")
	ErrGradingInFlight  = errors.New("an answer is already being graded")
	ErrNoQuitRequested  = errors.New("quit was not requested")
	ErrNotFinished      = errors.New("lesson has not reached a terminal state")
	ErrAlreadyFinished  = errors.New("lesson results were already applied")
	ErrInvalidUnit      = errors.New("fast-forward unit must be positive")
)
