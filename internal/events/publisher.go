// Package events publishes notifications about completed exports so other
// services (audit, dashboards) can follow operator activity. Nothing is
// persisted here; a missing subscriber loses the event.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChannelJobsExported is the Redis channel export notifications go to.
const ChannelJobsExported = "EVENT_JOBS_EXPORTED"

// ExportEvent describes one delivered export document.
type ExportEvent struct {
	ExportID   string    `json:"exportId"`
	UserID     int64     `json:"userId"`
	RecordIDs  []int64   `json:"recordIds"`
	Count      int       `json:"count"`
	ExportedAt time.Time `json:"exportedAt"`
}

// Publisher sends export events over Redis pub/sub. A nil client makes
// every publish a no-op.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

// Enabled reports whether events reach Redis.
func (p *Publisher) Enabled() bool { return p != nil && p.rdb != nil }

// ExportCompleted publishes ev on ChannelJobsExported.
func (p *Publisher) ExportCompleted(ctx context.Context, ev ExportEvent) error {
	if !p.Enabled() {
		return nil
	}
	payload, err := Encode(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, ChannelJobsExported, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", ChannelJobsExported, err)
	}
	return nil
}

// Encode renders ev as the JSON message body, tagged with its type.
func Encode(ev ExportEvent) ([]byte, error) {
	msg := struct {
		Type string `json:"type"`
		ExportEvent
	}{Type: ChannelJobsExported, ExportEvent: ev}

	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode export event: %w", err)
	}
	return b, nil
}
