package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewLessonFinishedEvent(t *testing.T) {
	event := NewLessonFinishedEvent(LessonFinishedEvent{AttemptID: "a1", State: "lesson_complete", Correct: 3})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventLessonFinished, event.Type)
	assert.Equal(t, "learner-client", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())

	require.NoError(t, mock.PublishLessonEvent(context.Background(), NewLessonQuitEvent(LessonQuitEvent{AttemptID: "a1"})))
	require.Len(t, mock.GetPublishedEvents(), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())
	assert.NoError(t, mock.Close())
}

func TestGoChannelRoundTrip(t *testing.T) {
	logger := testLogger()
	pubSub := NewGoChannelPubSub(logger)
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []LessonFinishedEvent
	)
	err := Consume(ctx, pubSub, "lessons", logger, func(ctx context.Context, eventType EventType, payload []byte) error {
		if eventType != EventLessonFinished {
			return nil
		}
		var data LessonFinishedEvent
		if _, err := DecodeLessonEvent(payload, &data); err != nil {
			return err
		}
		mu.Lock()
		received = append(received, data)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	publisher := NewWatermillEventPublisher(pubSub, "lessons", logger)
	require.NoError(t, publisher.PublishLessonEvent(ctx, NewLessonFinishedEvent(LessonFinishedEvent{
		AttemptID: "a1",
		State:     "lesson_complete",
		Correct:   3,
	})))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1 && received[0].AttemptID == "a1" && received[0].Correct == 3
	}, time.Second, 10*time.Millisecond)
}
