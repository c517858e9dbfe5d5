package service

import (
	"context"
	"encoding/json"
	"time"

	"voice-ordering-be/pkg/events"
	pktNats "voice-ordering-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService pushes embed-item messages onto the configured bus.
type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
}

type watermillPublisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

// NewWatermillPublisherService publishes onto the in-process channel bus.
func NewWatermillPublisherService(pubSub *gochannel.GoChannel, topicName string) IPublisherService {
	return &watermillPublisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (s *watermillPublisherService) Publish(_ context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return s.pubSub.Publish(s.topicName, msg)
}

type natsPublisherService struct {
	publisher *pktNats.Publisher
}

// NewNatsPublisherService publishes onto the shared JetStream bus, for
// deployments where indexing runs in a separate process.
func NewNatsPublisherService(publisher *pktNats.Publisher) IPublisherService {
	return &natsPublisherService{publisher: publisher}
}

func (s *natsPublisherService) Publish(ctx context.Context, payload []byte) error {
	var data map[string]interface{}
	if err := json.Unmarshal(payload, &data); err != nil {
		return err
	}
	return s.publisher.Publish(ctx, events.BaseEvent{
		Type:       events.TypeMenuItemUpserted,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	})
}
