package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/code-samurai/learner-client/internal/config"
	"github.com/code-samurai/learner-client/internal/events"
	"github.com/code-samurai/learner-client/internal/lesson"
)

// ActivityStore records the days a learner practised
type ActivityStore interface {
	RecordActiveDay(at time.Time) int
}

// ActivityRecorder keeps the streak up to date from lesson.finished events
type ActivityRecorder struct {
	store  ActivityStore
	logger *ServiceLogger
}

func NewActivityRecorder(store ActivityStore, logger *ServiceLogger) *ActivityRecorder {
	return &ActivityRecorder{store: store, logger: logger}
}

// Handle processes one raw lesson event
func (r *ActivityRecorder) Handle(ctx context.Context, eventType events.EventType, payload []byte) error {
	if eventType != events.EventLessonFinished {
		return nil
	}

	var data events.LessonFinishedEvent
	if _, err := events.DecodeLessonEvent(payload, &data); err != nil {
		return err
	}

	switch data.State {
	case lesson.LessonComplete.String(), lesson.FastForwardPass.String():
	default:
		return nil
	}

	finishedAt := data.FinishedAt
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	streak := r.store.RecordActiveDay(finishedAt.Local())
	r.logger.Logger().Info("Active day recorded",
		"attempt_id", data.AttemptID,
		"streak", streak)
	return nil
}

// Wire attaches the recorder to bus and returns the publisher lessons should
// use. With an in-process bus the recorder subscribes to the topic; for other
// transports it observes events as they are published.
func (r *ActivityRecorder) Wire(ctx context.Context, bus *config.EventBus) (events.EventPublisher, error) {
	if bus.Subscriber != nil {
		if err := events.Consume(ctx, bus.Subscriber, bus.Topic, r.logger.Logger(), r.Handle); err != nil {
			return nil, fmt.Errorf("failed to start activity recorder: %w", err)
		}
		return bus.Publisher, nil
	}
	return &observingPublisher{next: bus.Publisher, recorder: r}, nil
}

// observingPublisher feeds published events to the recorder directly
type observingPublisher struct {
	next     events.EventPublisher
	recorder *ActivityRecorder
}

func (p *observingPublisher) PublishLessonEvent(ctx context.Context, event *events.LessonEvent) error {
	err := p.next.PublishLessonEvent(ctx, event)

	payload, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		return marshalErr
	}
	if handleErr := p.recorder.Handle(ctx, event.Type, payload); handleErr != nil {
		p.recorder.logger.Logger().Warn("Activity recorder failed", "error", handleErr)
	}
	return err
}

func (p *observingPublisher) Close() error {
	return p.next.Close()
}
