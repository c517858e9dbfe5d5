package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// HistoryEntry is one recorded user utterance with its classified intent.
type HistoryEntry struct {
	Text      string    `json:"text"`
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderSession is the in-memory conversational state for one ongoing voice order.
// It is mutated exclusively by the order pipeline; callers must hold the
// per-session lock handed out by the SessionStore while doing so.
type OrderSession struct {
	ID       string         `json:"id"`
	Language string         `json:"language"`
	History  []HistoryEntry `json:"history"`

	// AccumulatedCriteria is the free-text search query built up across ADD
	// turns. A new search replaces it, a refinement extends it.
	AccumulatedCriteria string `json:"accumulated_criteria"`

	// DisplayedIds holds the candidate items currently shown, in rank order.
	DisplayedIds []uint `json:"displayed_ids"`

	// BasketIds keeps first-insertion order. BasketQuantities always has
	// exactly the same key set.
	BasketIds        []uint       `json:"basket_ids"`
	BasketQuantities map[uint]int `json:"basket_quantities"`

	CreatedAt time.Time `json:"created_at"`
}

// NewOrderSession creates an empty session with a fresh identifier.
func NewOrderSession() *OrderSession {
	return &OrderSession{
		ID:               uuid.NewString(),
		Language:         "en-US",
		History:          []HistoryEntry{},
		DisplayedIds:     []uint{},
		BasketIds:        []uint{},
		BasketQuantities: map[uint]int{},
		CreatedAt:        time.Now().UTC(),
	}
}

// RecordUtterance appends the utterance to the history and, for ADD intents,
// updates the accumulated search criteria. A new search replaces the criteria
// and drops the displayed set; a refinement space-joins onto the existing one.
func (s *OrderSession) RecordUtterance(text, intent string, newSearch bool, searchCriteria string) {
	s.History = append(s.History, HistoryEntry{
		Text:      text,
		Intent:    intent,
		Timestamp: time.Now().UTC(),
	})

	if intent != "ADD" {
		return
	}

	criteria := searchCriteria
	if criteria == "" {
		criteria = text
	}
	if newSearch {
		s.AccumulatedCriteria = criteria
		s.DisplayedIds = []uint{}
	} else {
		s.AccumulatedCriteria = strings.TrimSpace(s.AccumulatedCriteria + " " + criteria)
	}
}

// AddToBasket adds items, incrementing the quantity for items already present.
// quantities maps item ID to the amount to add; absent keys default to 1.
// First-insertion order of BasketIds is preserved.
func (s *OrderSession) AddToBasket(itemIds []uint, quantities map[uint]int) {
	for _, id := range itemIds {
		qty := 1
		if quantities != nil {
			if q, ok := quantities[id]; ok && q > 0 {
				qty = q
			}
		}
		if _, exists := s.BasketQuantities[id]; !exists {
			s.BasketIds = append(s.BasketIds, id)
			s.BasketQuantities[id] = qty
		} else {
			s.BasketQuantities[id] += qty
		}
	}
}

// RemoveFromBasket removes each item entirely, regardless of quantity.
// Removing an absent item is a no-op.
func (s *OrderSession) RemoveFromBasket(itemIds []uint) {
	remove := make(map[uint]bool, len(itemIds))
	for _, id := range itemIds {
		remove[id] = true
		delete(s.BasketQuantities, id)
	}

	kept := s.BasketIds[:0]
	for _, id := range s.BasketIds {
		if !remove[id] {
			kept = append(kept, id)
		}
	}
	s.BasketIds = kept
}

// Clear resets criteria, displayed items and basket. The conversation history
// is kept as durable context for the intent classifier.
func (s *OrderSession) Clear() {
	s.AccumulatedCriteria = ""
	s.DisplayedIds = []uint{}
	s.BasketIds = []uint{}
	s.BasketQuantities = map[uint]int{}
}
