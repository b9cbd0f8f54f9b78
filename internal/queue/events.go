package queue

import (
	"context"
	"encoding/json"
	"time"

	"audio_classifier/internal/observability"

	amqp "github.com/rabbitmq/amqp091-go"
)

// TaskEvent is the JSON payload published to the classification_events queue
// whenever a task is created or reaches a terminal status.
type TaskEvent struct {
	TaskID int     `json:"task_id"`
	Status string  `json:"status"`
	Label  string  `json:"label,omitempty"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// EventPublisher publishes task lifecycle events. Publishing is best effort:
// callers must never fail a task because an event could not be delivered.
type EventPublisher struct {
	conn *amqp.Connection
}

func NewEventPublisher(conn *amqp.Connection) *EventPublisher {
	return &EventPublisher{conn: conn}
}

func (p *EventPublisher) Publish(event TaskEvent) error {
	ch, err := CreateChannel(p.conn)
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	observability.GlobalMetrics.QueueEventsPublished.WithLabelValues(EventQueue).Inc()

	return ch.PublishWithContext(
		ctx,
		"",         // exchange
		EventQueue, // routing key (queue name)
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
