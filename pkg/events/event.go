package events

import "time"

// Event is the contract for everything that goes over the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "MENU_ITEM_UPSERTED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used by all publishers.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

const TypeMenuItemUpserted = "MENU_ITEM_UPSERTED"

// NewMenuItemUpserted signals that a catalog item was created or changed and
// its embedding needs to be (re)computed.
func NewMenuItemUpserted(itemId uint) BaseEvent {
	return BaseEvent{
		Type:       TypeMenuItemUpserted,
		Data:       map[string]interface{}{"item_id": itemId},
		OccurredAt: time.Now().UTC(),
	}
}
