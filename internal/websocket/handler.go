package websocket

import (
	"context"
	"encoding/base64"
	"sync"

	"voice-ordering-be/internal/dto"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/internal/service"
	"voice-ordering-be/pkg/store"
	"voice-ordering-be/pkg/stt"

	"github.com/gofiber/websocket/v2"
)

// Client frame types.
const (
	msgStart = "start"
	msgAudio = "audio"
	msgStop  = "stop"
)

// Server frame types.
const (
	evtConnected  = "connected"
	evtInterim    = "interim"
	evtProcessing = "processing"
	evtResults    = "results"
	evtReady      = "ready"
	evtError      = "error"
)

// Handler owns the live voice connections. Each connection gets one
// streaming speech session; every finalized utterance runs the order
// pipeline, strictly one at a time per connection.
type Handler struct {
	orderService service.IOrderService
	sttProvider  stt.Provider
	sessions     store.SessionStore
	logger       logger.ILogger
}

func NewHandler(
	orderService service.IOrderService,
	sttProvider stt.Provider,
	sessions store.SessionStore,
	log logger.ILogger,
) *Handler {
	return &Handler{
		orderService: orderService,
		sttProvider:  sttProvider,
		sessions:     sessions,
		logger:       log,
	}
}

// HandleAudio runs the connection's read loop. Speech callbacks only push
// into channels; the pipeline and all writes happen on goroutines owned by
// this connection, which keeps per-connection ordering intact.
func (h *Handler) HandleAudio(ws *websocket.Conn) {
	c := newConn(ws)
	go c.writePump()

	finals := make(chan string, 16)

	var mu sync.Mutex
	var sttSession stt.StreamingSession
	sessionID := ""
	language := ""

	stopSession := func() {
		mu.Lock()
		session := sttSession
		mu.Unlock()
		if session == nil {
			return
		}
		if err := session.Stop(); err != nil {
			h.logger.Warn("Websocket", "Failed to stop speech session", map[string]interface{}{"error": err.Error()})
		}
	}

	defer func() {
		stopSession()
		c.close()
	}()

	// Finals processor: one utterance at a time, in arrival order.
	go func() {
		for {
			var transcript string
			select {
			case <-c.done:
				return
			case transcript = <-finals:
			}

			mu.Lock()
			sid, lang := sessionID, language
			mu.Unlock()

			c.emit(dto.WsServerMessage{Type: evtProcessing, SessionId: sid, Transcript: transcript})

			res, err := h.orderService.ProcessTranscript(context.Background(), sid, lang, transcript)
			if c.closed() {
				// The socket went away mid-run; the session state is saved,
				// the response just has nowhere to go.
				return
			}
			if err != nil {
				h.logger.Error("Websocket", "Pipeline run failed", map[string]interface{}{
					"session": sid,
					"error":   err.Error(),
				})
				c.emit(dto.WsServerMessage{Type: evtError, SessionId: sid, Error: "Sorry, something went wrong. Please try again."})
			} else {
				c.emit(dto.WsServerMessage{
					Type:        evtResults,
					SessionId:   res.SessionId,
					Transcript:  res.Transcript,
					Message:     res.Message,
					Confirmed:   res.Confirmed,
					Items:       res.Items,
					BasketItems: res.BasketItems,
				})
			}
			c.emit(dto.WsServerMessage{Type: evtReady, SessionId: sid})
		}
	}()

	ws.SetReadLimit(maxMessageSize)

	for {
		var msg dto.WsClientMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Websocket", "Connection closed unexpectedly", map[string]interface{}{"error": err.Error()})
			}
			return
		}

		switch msg.Type {
		case msgStart:
			mu.Lock()
			alreadyStarted := sttSession != nil
			mu.Unlock()
			if alreadyStarted {
				c.emit(dto.WsServerMessage{Type: evtError, Error: "session already started"})
				continue
			}

			session, unlock := store.LockAndGet(h.sessions, msg.SessionId)
			if msg.Language != "" {
				session.Language = msg.Language
			}
			h.sessions.Save(session)
			startID, startLanguage := session.ID, session.Language
			unlock()

			hints, err := h.orderService.PhraseHints(context.Background())
			if err != nil {
				h.logger.Warn("Websocket", "Failed to load phrase hints", map[string]interface{}{"error": err.Error()})
			}

			streaming := h.sttProvider.NewStreamingSession()
			onInterim := func(text string) {
				c.emit(dto.WsServerMessage{Type: evtInterim, SessionId: startID, Transcript: text})
			}
			onFinal := func(text string) {
				select {
				case <-c.done:
				case finals <- text:
				}
			}
			if err := streaming.Start(context.Background(), startLanguage, onInterim, onFinal, hints); err != nil {
				h.logger.Error("Websocket", "Failed to start speech session", map[string]interface{}{"error": err.Error()})
				c.emit(dto.WsServerMessage{Type: evtError, Error: "speech recognition unavailable"})
				return
			}

			mu.Lock()
			sttSession = streaming
			sessionID = startID
			language = startLanguage
			mu.Unlock()

			c.emit(dto.WsServerMessage{Type: evtConnected, SessionId: startID})

		case msgAudio:
			mu.Lock()
			session := sttSession
			mu.Unlock()
			if session == nil {
				c.emit(dto.WsServerMessage{Type: evtError, Error: "send start before audio"})
				continue
			}

			chunk, err := base64.StdEncoding.DecodeString(msg.AudioBase64)
			if err != nil {
				c.emit(dto.WsServerMessage{Type: evtError, Error: "audio is not valid base64"})
				continue
			}
			// The read loop is the only goroutine calling SendAudio, so
			// pushes to the provider are naturally serialized.
			if err := session.SendAudio(chunk); err != nil {
				h.logger.Warn("Websocket", "Failed to forward audio", map[string]interface{}{"error": err.Error()})
			}

		case msgStop:
			stopSession()
			mu.Lock()
			sttSession = nil
			mu.Unlock()

		default:
			c.emit(dto.WsServerMessage{Type: evtError, Error: "unknown message type: " + msg.Type})
		}
	}
}
