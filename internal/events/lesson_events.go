package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of lesson events
type EventType string

const (
	EventLessonStarted  EventType = "lesson.started"
	EventAnswerGraded   EventType = "lesson.answer_graded"
	EventLessonFinished EventType = "lesson.finished"
	EventLessonQuit     EventType = "lesson.quit"
)

const (
	eventSource  = "learner-client"
	eventVersion = "1.0"
)

// LessonEvent is the envelope for every lesson event
type LessonEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Lesson event payloads

type LessonStartedEvent struct {
	AttemptID  string   `json:"attempt_id"`
	UserID     string   `json:"user_id,omitempty"`
	Practice   bool     `json:"practice"`
	Unit       int      `json:"unit,omitempty"` // fast-forward target
	ProblemIDs []string `json:"problem_ids"`
}

type AnswerGradedEvent struct {
	AttemptID string `json:"attempt_id"`
	ProblemID string `json:"problem_id"`
	Outcome   string `json:"outcome"`
}

type LessonFinishedEvent struct {
	AttemptID  string    `json:"attempt_id"`
	UserID     string    `json:"user_id,omitempty"`
	State      string    `json:"state"`
	Correct    int       `json:"correct"`
	Incorrect  int       `json:"incorrect"`
	DurationMs int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

type LessonQuitEvent struct {
	AttemptID string `json:"attempt_id"`
	Answered  int    `json:"answered"`
}

// Event factory functions

func newEvent(eventType EventType, data interface{}) *LessonEvent {
	return &LessonEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewLessonStartedEvent(data LessonStartedEvent) *LessonEvent {
	return newEvent(EventLessonStarted, data)
}

func NewAnswerGradedEvent(data AnswerGradedEvent) *LessonEvent {
	return newEvent(EventAnswerGraded, data)
}

func NewLessonFinishedEvent(data LessonFinishedEvent) *LessonEvent {
	return newEvent(EventLessonFinished, data)
}

func NewLessonQuitEvent(data LessonQuitEvent) *LessonEvent {
	return newEvent(EventLessonQuit, data)
}

// DecodeLessonEvent parses a published payload, decoding Data into data
func DecodeLessonEvent(payload []byte, data interface{}) (*LessonEvent, error) {
	var raw struct {
		ID        string                 `json:"id"`
		Type      EventType              `json:"type"`
		Timestamp time.Time              `json:"timestamp"`
		Source    string                 `json:"source"`
		Version   string                 `json:"version"`
		Data      json.RawMessage        `json:"data"`
		Metadata  map[string]interface{} `json:"metadata,omitempty"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lesson event: %w", err)
	}

	if data != nil && len(raw.Data) > 0 {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", raw.Type, err)
		}
	}

	return &LessonEvent{
		ID:        raw.ID,
		Type:      raw.Type,
		Timestamp: raw.Timestamp,
		Source:    raw.Source,
		Version:   raw.Version,
		Data:      data,
		Metadata:  raw.Metadata,
	}, nil
}
