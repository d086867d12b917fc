// internal/adapter/events/publisher.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fashionpulse/internal/domain/analytics"
)

// Event types
const (
	TypeSnapshot       = "snapshot"
	TypeCycleCompleted = "cycle.completed"
)

// Event is the envelope published for every pipeline event
type Event struct {
	Type string          `json:"type"`
	Time time.Time       `json:"time"`
	Data json.RawMessage `json:"data"`
}

// SnapshotSubject returns the subject snapshot events are published on
func SnapshotSubject(topic string) string {
	return topic + "." + TypeSnapshot
}

// CycleSubject returns the subject cycle events are published on
func CycleSubject(topic string) string {
	return topic + "." + TypeCycleCompleted
}

// AllSubjects returns a wildcard subject matching every pipeline event
func AllSubjects(topic string) string {
	return topic + ".>"
}

// Publisher announces snapshots and completed cycles on a Bus
type Publisher struct {
	bus   Bus
	topic string
	now   func() time.Time
}

// NewPublisher creates a publisher writing under topic
func NewPublisher(bus Bus, topic string) *Publisher {
	if topic == "" {
		topic = "analytics"
	}
	return &Publisher{
		bus:   bus,
		topic: topic,
		now:   time.Now,
	}
}

// PublishSnapshot announces a persisted snapshot
func (p *Publisher) PublishSnapshot(ctx context.Context, s analytics.Snapshot) error {
	return p.publish(ctx, SnapshotSubject(p.topic), TypeSnapshot, s)
}

// PublishCycle announces a completed cycle
func (p *Publisher) PublishCycle(ctx context.Context, summary analytics.CycleSummary) error {
	return p.publish(ctx, CycleSubject(p.topic), TypeCycleCompleted, summary)
}

func (p *Publisher) publish(ctx context.Context, subject, eventType string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling %s event: %w", eventType, err)
	}

	event, err := json.Marshal(Event{
		Type: eventType,
		Time: p.now().UTC(),
		Data: data,
	})
	if err != nil {
		return fmt.Errorf("error marshaling event envelope: %w", err)
	}

	return p.bus.Publish(subject, event)
}
