package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"voice-ordering-be/internal/dto"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/pkg/serverutils"
	"voice-ordering-be/internal/repository/contract"
	"voice-ordering-be/pkg/order"
	"voice-ordering-be/pkg/store"
	"voice-ordering-be/pkg/stt"

	"github.com/gofiber/fiber/v2"
)

type IOrderService interface {
	// ProcessAudio runs the full pipeline on one base64 PCM utterance.
	ProcessAudio(ctx context.Context, req *dto.AudioRequest) (*dto.AudioResponse, error)

	// ProcessTranscript runs the pipeline on already-recognized text.
	ProcessTranscript(ctx context.Context, sessionID, language, transcript string) (*dto.AudioResponse, error)

	// AddToBasket and RemoveFromBasket are the click-action paths; they
	// bypass recognition and classification entirely.
	AddToBasket(ctx context.Context, req *dto.BasketActionRequest) (*dto.BasketResponse, error)
	RemoveFromBasket(ctx context.Context, req *dto.BasketActionRequest) (*dto.BasketResponse, error)

	// PhraseHints returns catalog item names used to bias speech recognition.
	PhraseHints(ctx context.Context) ([]string, error)
}

type orderService struct {
	pipeline       *order.Pipeline
	sttProvider    stt.Provider
	sessions       store.SessionStore
	menuRepository contract.MenuItemRepository
	logger         logger.ILogger
}

func NewOrderService(
	pipeline *order.Pipeline,
	sttProvider stt.Provider,
	sessions store.SessionStore,
	menuRepository contract.MenuItemRepository,
	log logger.ILogger,
) IOrderService {
	return &orderService{
		pipeline:       pipeline,
		sttProvider:    sttProvider,
		sessions:       sessions,
		menuRepository: menuRepository,
		logger:         log,
	}
}

func (s *orderService) ProcessAudio(ctx context.Context, req *dto.AudioRequest) (*dto.AudioResponse, error) {
	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return nil, serverutils.NewAppError(fiber.StatusBadRequest, "audio_base64 is not valid base64")
	}

	hints, err := s.PhraseHints(ctx)
	if err != nil {
		return nil, err
	}

	transcript, err := s.sttProvider.TranscribeOnce(ctx, audio, req.Language, hints)
	if err != nil {
		return nil, fmt.Errorf("speech recognition failed: %w", err)
	}

	return s.ProcessTranscript(ctx, req.SessionId, req.Language, transcript)
}

func (s *orderService) ProcessTranscript(ctx context.Context, sessionID, language, transcript string) (*dto.AudioResponse, error) {
	result, err := s.pipeline.Run(ctx, sessionID, language, transcript)
	if err != nil {
		return nil, err
	}
	return toAudioResponse(result), nil
}

func (s *orderService) AddToBasket(ctx context.Context, req *dto.BasketActionRequest) (*dto.BasketResponse, error) {
	items, err := s.menuRepository.FindByIds(ctx, []uint{req.ItemId})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "menu item not found")
	}

	session, unlock := store.LockAndGet(s.sessions, req.SessionId)
	defer unlock()

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	session.AddToBasket([]uint{req.ItemId}, map[uint]int{req.ItemId: quantity})
	s.sessions.Save(session)

	return s.basketResponse(ctx, session)
}

func (s *orderService) RemoveFromBasket(ctx context.Context, req *dto.BasketActionRequest) (*dto.BasketResponse, error) {
	unlock := s.sessions.Lock(req.SessionId)
	defer unlock()

	session, ok := s.sessions.Get(req.SessionId)
	if !ok {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "session not found")
	}

	session.RemoveFromBasket([]uint{req.ItemId})
	s.sessions.Save(session)

	return s.basketResponse(ctx, session)
}

func (s *orderService) PhraseHints(ctx context.Context) ([]string, error) {
	items, err := s.menuRepository.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	hints := make([]string, 0, len(items))
	for _, item := range items {
		hints = append(hints, item.Name)
	}
	return hints, nil
}

func (s *orderService) basketResponse(ctx context.Context, session *store.OrderSession) (*dto.BasketResponse, error) {
	items, err := s.menuRepository.FindByIds(ctx, session.BasketIds)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]int, len(items))
	for i, item := range items {
		byID[item.Id] = i
	}

	basket := make([]dto.MenuItemResponse, 0, len(session.BasketIds))
	for _, id := range session.BasketIds {
		idx, ok := byID[id]
		if !ok {
			continue
		}
		basket = append(basket, toMenuItemResponse(items[idx], session.BasketQuantities[id]))
	}

	return &dto.BasketResponse{
		SessionId:   session.ID,
		BasketItems: basket,
	}, nil
}

func toAudioResponse(result *order.Result) *dto.AudioResponse {
	items := make([]dto.MenuItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toMenuItemResponse(item, 0))
	}

	basket := make([]dto.MenuItemResponse, 0, len(result.Basket))
	for _, line := range result.Basket {
		basket = append(basket, toMenuItemResponse(line.Item, line.Quantity))
	}

	return &dto.AudioResponse{
		SessionId:   result.SessionID,
		Transcript:  result.Transcript,
		Message:     result.Message,
		Confirmed:   result.Confirmed,
		Items:       items,
		BasketItems: basket,
	}
}
