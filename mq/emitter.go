package mq

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel plan events are published on.
const Channel = "plan-events"

const (
	PlanCreated        = "plan-created"
	PlanDeleted        = "plan-deleted"
	SuggestionReplaced = "suggestion-replaced"
)

// Event describes a change to a plan.
type Event struct {
	Name       string    `json:"name"`
	PlanID     string    `json:"plan_id"`
	Owner      string    `json:"owner,omitempty"`
	Date       string    `json:"date,omitempty"`
	Meal       string    `json:"meal,omitempty"`
	PreviousID string    `json:"previous_id,omitempty"`
	NewID      string    `json:"new_id,omitempty"`
	At         time.Time `json:"at"`
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

type Emitter struct {
	conn publisher
}

func NewEmitter(conn publisher) *Emitter {
	return &Emitter{conn: conn}
}

// Emit publishes an event. Failures are logged and never returned: events
// are informational and must not fail the request that produced them.
func (e *Emitter) Emit(ctx context.Context, evt Event) {
	if e == nil || e.conn == nil {
		return
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Emit] Failed to marshal %s event: %v", evt.Name, err)
		return
	}

	if err := e.conn.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Emit] Failed to publish %s for plan %s: %v", evt.Name, evt.PlanID, err)
	}
}
