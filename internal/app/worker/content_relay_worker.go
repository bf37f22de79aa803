package worker

import (
	"codecollab/internal/app/realtime"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// ContentRelayWorker forwards session events published by any instance to the clients
// connected to this one.
type ContentRelayWorker struct {
	rdb     *redis.Client
	channel string
	hub     *realtime.Hub
}

func NewContentRelayWorker(rdb *redis.Client, channel string, hub *realtime.Hub) *ContentRelayWorker {
	return &ContentRelayWorker{
		rdb:     rdb,
		channel: channel,
		hub:     hub,
	}
}

// Start blocks until ctx is cancelled or the subscription fails.
func (w *ContentRelayWorker) Start(ctx context.Context) error {
	sub := w.rdb.Subscribe(ctx, w.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reporting ready.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to subscribe to '%s': %w", w.channel, err)
	}
	log.Println("Content relay worker started, listening to channel:", w.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("Content relay worker stopping...")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return fmt.Errorf("subscription to '%s' closed", w.channel)
			}
			w.handleMessage(msg.Payload)
		}
	}
}

func (w *ContentRelayWorker) handleMessage(payload string) {
	var event realtime.SessionEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		log.Printf("WARN: Dropping malformed session event: %v", err)
		return
	}
	if event.SessionID == "" {
		log.Println("WARN: Dropping session event without session_id.")
		return
	}
	w.hub.Broadcast(event)
}
