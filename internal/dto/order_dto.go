package dto

// AudioRequest is one complete utterance for the stateless path. AudioBase64
// carries raw 16 kHz 16-bit mono PCM.
type AudioRequest struct {
	SessionId   string `json:"session_id"`
	Language    string `json:"language"`
	AudioBase64 string `json:"audio_base64" validate:"required"`
}

type AudioResponse struct {
	SessionId   string             `json:"session_id"`
	Transcript  string             `json:"transcript"`
	Message     string             `json:"message"`
	Confirmed   bool               `json:"confirmed"`
	Items       []MenuItemResponse `json:"items"`
	BasketItems []MenuItemResponse `json:"basket_items"`
}

// BasketActionRequest is a click-action on one item (add or remove).
type BasketActionRequest struct {
	SessionId string `json:"session_id" validate:"required"`
	ItemId    uint   `json:"item_id" validate:"required"`
	Quantity  int    `json:"quantity"`
}

type BasketResponse struct {
	SessionId   string             `json:"session_id"`
	BasketItems []MenuItemResponse `json:"basket_items"`
}

// Websocket frames. Client sends start/audio/stop, the server answers with
// connected/interim/processing/results/ready/error.
type WsClientMessage struct {
	Type        string `json:"type"`
	SessionId   string `json:"session_id,omitempty"`
	Language    string `json:"language,omitempty"`
	AudioBase64 string `json:"audio,omitempty"`
}

type WsServerMessage struct {
	Type        string             `json:"type"`
	SessionId   string             `json:"session_id,omitempty"`
	Transcript  string             `json:"transcript,omitempty"`
	Message     string             `json:"message,omitempty"`
	Confirmed   bool               `json:"confirmed,omitempty"`
	Items       []MenuItemResponse `json:"items,omitempty"`
	BasketItems []MenuItemResponse `json:"basket_items,omitempty"`
	Error       string             `json:"error,omitempty"`
}
