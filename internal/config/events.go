package config

import (
	"log/slog"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/code-samurai/learner-client/internal/events"
)

// EventConfig holds configuration for lesson event publishing
type EventConfig struct {
	Enabled      bool   `env:"EVENTS_ENABLED" envDefault:"true"`
	Publisher    string `env:"EVENTS_PUBLISHER" envDefault:"gochannel"` // gochannel, kafka or mock
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	LessonTopic  string `env:"LESSON_TOPIC" envDefault:"lesson-events"`
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	brokers := strings.Split(c.KafkaBrokers, ",")
	out := brokers[:0]
	for _, b := range brokers {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// EventBus is the publisher plus, for the in-process transport, the
// subscriber that local consumers attach to. Subscriber is nil otherwise.
type EventBus struct {
	Publisher  events.EventPublisher
	Subscriber message.Subscriber
	Topic      string
}

// CreateEventBus creates an event publisher based on configuration
func (c *EventConfig) CreateEventBus(logger *slog.Logger) (*EventBus, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return &EventBus{Publisher: events.NewMockEventPublisher(logger), Topic: c.LessonTopic}, nil
	}

	switch c.Publisher {
	case "gochannel":
		logger.Info("Creating in-process event bus", "topic", c.LessonTopic)
		pubSub := events.NewGoChannelPubSub(logger)
		return &EventBus{
			Publisher:  events.NewWatermillEventPublisher(pubSub, c.LessonTopic, logger),
			Subscriber: pubSub,
			Topic:      c.LessonTopic,
		}, nil
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.LessonTopic)

		publisher, err := events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.LessonTopic,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		return &EventBus{Publisher: publisher, Topic: c.LessonTopic}, nil
	case "mock":
		logger.Info("Using mock event publisher")
		return &EventBus{Publisher: events.NewMockEventPublisher(logger), Topic: c.LessonTopic}, nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return &EventBus{Publisher: events.NewMockEventPublisher(logger), Topic: c.LessonTopic}, nil
	}
}
