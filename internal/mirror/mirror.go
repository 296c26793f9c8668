// Package mirror publishes a copy of outbound chat events to per-room Redis
// channels so operational tooling can watch live traffic. It is strictly
// best effort and carries no room state; losing Redis loses nothing but the
// mirror.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"livechat-backend/internal/chat"
	"livechat-backend/internal/queue"
)

type envelope struct {
	Event     string     `json:"event"`
	RoomID    string     `json:"roomId"`
	Payload   chat.Event `json:"payload"`
	Timestamp int64      `json:"timestamp"`
}

type Publisher struct {
	client *redis.Client
	queue  *queue.Manager
	log    *zap.Logger
}

// New returns nil when no Redis address is configured; a nil Publisher is a
// valid no-op mirror.
func New(addr, password string, q *queue.Manager, log *zap.Logger) *Publisher {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	return &Publisher{
		client: client,
		queue:  q,
		log:    log,
	}
}

func channel(roomID string) string {
	return "chat:room:" + roomID
}

// Publish queues the event for delivery to the room's channel. Full queue or
// Redis failure drops the event with a log line; the chat path never blocks
// on the mirror.
func (p *Publisher) Publish(roomID string, event chat.Event) {
	if p == nil {
		return
	}

	data, err := json.Marshal(envelope{
		Event:     event.EventName(),
		RoomID:    roomID,
		Payload:   event,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		p.log.Error("mirror: marshal event", zap.String("roomId", roomID), zap.Error(err))
		return
	}

	job := queue.Job{Fn: func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := p.client.Publish(ctx, channel(roomID), data).Err(); err != nil {
			p.log.Warn("mirror: redis publish failed", zap.String("roomId", roomID), zap.Error(err))
		}
		return nil
	}}

	if p.queue == nil {
		_ = job.Fn()
		return
	}
	if !p.queue.TryEnqueueJob(job) {
		p.log.Warn("mirror: queue full, dropping event",
			zap.String("roomId", roomID),
			zap.String("event", event.EventName()))
	}
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("mirror: close redis client: %w", err)
	}
	return nil
}
