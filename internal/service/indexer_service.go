package service

import (
	"context"
	"encoding/json"
	"fmt"

	"voice-ordering-be/internal/dto"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/pkg/embedding"
	"voice-ordering-be/pkg/events"
	pktNats "voice-ordering-be/pkg/nats"
	"voice-ordering-be/pkg/rerank"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IIndexerService computes and stores document embeddings for catalog items.
// It consumes embed-item messages from either bus backend; ReindexMissing
// republishes every item that has no embedding yet.
type IIndexerService interface {
	Consume(ctx context.Context) error
	StartNats(subscriber *pktNats.Subscriber) error
	ReindexMissing(ctx context.Context, publisher IPublisherService) error
}

type indexerService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	menuRepository    contract.MenuItemRepository
	embeddingProvider embedding.Provider
	logger            logger.ILogger
}

func NewIndexerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	menuRepository contract.MenuItemRepository,
	embeddingProvider embedding.Provider,
	log logger.ILogger,
) IIndexerService {
	return &indexerService{
		pubSub:            pubSub,
		topicName:         topicName,
		menuRepository:    menuRepository,
		embeddingProvider: embeddingProvider,
		logger:            log,
	}
}

func (s *indexerService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *indexerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedItemMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("Indexer", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // invalid forever, do not retry
		return
	}

	if err := s.embedItem(ctx, payload.ItemId); err != nil {
		s.logger.Error("Indexer", "Failed to embed item", map[string]interface{}{
			"item_id": payload.ItemId,
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
}

// StartNats attaches the same processing to the JetStream bus.
func (s *indexerService) StartNats(subscriber *pktNats.Subscriber) error {
	return subscriber.Subscribe("events."+events.TypeMenuItemUpserted, "menu-indexer", func(ctx context.Context, event events.Event) error {
		raw, ok := event.Payload()["item_id"]
		if !ok {
			return nil
		}
		// JSON numbers decode as float64.
		id, ok := raw.(float64)
		if !ok {
			return nil
		}
		return s.embedItem(ctx, uint(id))
	})
}

func (s *indexerService) embedItem(ctx context.Context, itemId uint) error {
	items, err := s.menuRepository.FindByIds(ctx, []uint{itemId})
	if err != nil {
		return fmt.Errorf("load item %d: %w", itemId, err)
	}
	if len(items) == 0 {
		// Item deleted between publish and consume.
		return nil
	}
	item := items[0]

	vector, err := s.embeddingProvider.EmbedDocument(ctx, rerank.DocumentText(item))
	if err != nil {
		return fmt.Errorf("embed item %d: %w", itemId, err)
	}

	if err := s.menuRepository.UpdateEmbedding(ctx, itemId, vector); err != nil {
		return fmt.Errorf("store embedding for item %d: %w", itemId, err)
	}

	s.logger.Info("Indexer", "Item embedded", map[string]interface{}{
		"item_id": itemId,
		"name":    item.Name,
		"dims":    len(vector),
	})
	return nil
}

func (s *indexerService) ReindexMissing(ctx context.Context, publisher IPublisherService) error {
	ids, err := s.menuRepository.FindIdsMissingEmbedding(ctx)
	if err != nil {
		return err
	}

	for _, id := range ids {
		payload, err := json.Marshal(dto.PublishEmbedItemMessage{ItemId: id})
		if err != nil {
			return err
		}
		if err := publisher.Publish(ctx, payload); err != nil {
			return err
		}
	}

	if len(ids) > 0 {
		s.logger.Info("Indexer", "Queued items for embedding", map[string]interface{}{"count": len(ids)})
	}
	return nil
}
