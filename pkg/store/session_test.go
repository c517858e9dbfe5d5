package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUtteranceNewSearchReplacesCriteria(t *testing.T) {
	s := NewOrderSession()
	s.DisplayedIds = []uint{7, 8}

	s.RecordUtterance("I want a burger", "ADD", true, "burger")

	assert.Equal(t, "burger", s.AccumulatedCriteria)
	assert.Empty(t, s.DisplayedIds)
	require.Len(t, s.History, 1)
	assert.Equal(t, "I want a burger", s.History[0].Text)
	assert.Equal(t, "ADD", s.History[0].Intent)
}

func TestRecordUtteranceRefinementExtendsCriteria(t *testing.T) {
	s := NewOrderSession()

	s.RecordUtterance("I want a burger", "ADD", true, "burger")
	s.RecordUtterance("with cheese please", "ADD", false, "with cheese")

	assert.Equal(t, "burger with cheese", s.AccumulatedCriteria)
	assert.Len(t, s.History, 2)
}

func TestRecordUtteranceFallsBackToTranscript(t *testing.T) {
	s := NewOrderSession()

	s.RecordUtterance("something healthy", "ADD", true, "")

	assert.Equal(t, "something healthy", s.AccumulatedCriteria)
}

func TestRecordUtteranceNonAddLeavesCriteriaAlone(t *testing.T) {
	s := NewOrderSession()
	s.AccumulatedCriteria = "burger"
	s.DisplayedIds = []uint{1}

	s.RecordUtterance("remove the fries", "REMOVE", false, "")

	assert.Equal(t, "burger", s.AccumulatedCriteria)
	assert.Equal(t, []uint{1}, s.DisplayedIds)
	assert.Len(t, s.History, 1)
}

func TestAddToBasketIncrementsOnRepeatAdd(t *testing.T) {
	s := NewOrderSession()

	s.AddToBasket([]uint{3}, nil)
	s.AddToBasket([]uint{3}, nil)

	assert.Equal(t, []uint{3}, s.BasketIds)
	assert.Equal(t, 2, s.BasketQuantities[3])
}

func TestAddToBasketPreservesInsertionOrder(t *testing.T) {
	s := NewOrderSession()

	s.AddToBasket([]uint{5, 2}, nil)
	s.AddToBasket([]uint{9, 5}, nil)

	assert.Equal(t, []uint{5, 2, 9}, s.BasketIds)
	assert.Equal(t, 2, s.BasketQuantities[5])
	assert.Equal(t, 1, s.BasketQuantities[2])
	assert.Equal(t, 1, s.BasketQuantities[9])
}

func TestAddToBasketExplicitQuantities(t *testing.T) {
	s := NewOrderSession()

	s.AddToBasket([]uint{4, 6}, map[uint]int{4: 3})

	assert.Equal(t, 3, s.BasketQuantities[4])
	assert.Equal(t, 1, s.BasketQuantities[6])

	s.AddToBasket([]uint{4}, map[uint]int{4: 2})
	assert.Equal(t, 5, s.BasketQuantities[4])
}

func TestRemoveFromBasketRemovesEntirely(t *testing.T) {
	s := NewOrderSession()
	s.AddToBasket([]uint{1}, map[uint]int{1: 4})
	s.AddToBasket([]uint{2}, nil)

	s.RemoveFromBasket([]uint{1})

	assert.Equal(t, []uint{2}, s.BasketIds)
	_, exists := s.BasketQuantities[1]
	assert.False(t, exists)

	// Idempotent: removing again is safe.
	s.RemoveFromBasket([]uint{1})
	assert.Equal(t, []uint{2}, s.BasketIds)
}

func TestBasketInvariantHolds(t *testing.T) {
	s := NewOrderSession()
	s.AddToBasket([]uint{1, 2, 3}, nil)
	s.AddToBasket([]uint{2}, nil)
	s.RemoveFromBasket([]uint{1, 9})

	assert.Len(t, s.BasketIds, len(s.BasketQuantities))
	for _, id := range s.BasketIds {
		_, ok := s.BasketQuantities[id]
		assert.True(t, ok, "basket id %d missing from quantities", id)
	}
}

func TestClearKeepsHistory(t *testing.T) {
	s := NewOrderSession()
	s.RecordUtterance("burger", "ADD", true, "burger")
	s.DisplayedIds = []uint{1, 2}
	s.AddToBasket([]uint{3}, nil)

	s.Clear()

	assert.Empty(t, s.AccumulatedCriteria)
	assert.Empty(t, s.DisplayedIds)
	assert.Empty(t, s.BasketIds)
	assert.Empty(t, s.BasketQuantities)
	assert.Len(t, s.History, 1)
}
