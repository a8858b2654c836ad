package events

import (
	"context"
	"encoding/json"
	"time"

	"go_lecture_backend/models"
	"go_lecture_backend/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const AssetEventChannel = "asset:events"

// EventPublisher pushes render lifecycle transitions over redis pub/sub so
// reader UIs can stop polling the status endpoint once a render settles.
type EventPublisher struct {
	redisClient *redis.Client
}

func NewEventPublisher(redisClient *redis.Client) *EventPublisher {
	return &EventPublisher{redisClient: redisClient}
}

func (p *EventPublisher) PublishRenderEvent(event *models.AssetEvent) error {
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail PublishRenderEvent", "error", err)
		return err
	}
	ctx := context.Background()
	if err := p.redisClient.Publish(ctx, AssetEventChannel, string(data)).Err(); err != nil {
		logging.Logger.Error("fail PublishRenderEvent", "error", err)
		return err
	}
	return nil
}

func (p *EventPublisher) SubscribeRenderEvents(ctx context.Context) (<-chan *models.AssetEvent, error) {
	pubsub := p.redisClient.Subscribe(ctx, AssetEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, err
	}

	out := make(chan *models.AssetEvent, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event models.AssetEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("fail decode asset event", "error", err)
					continue
				}
				out <- &event
			}
		}
	}()
	return out, nil
}
