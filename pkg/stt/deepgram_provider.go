package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	deepgramWsURL   = "wss://api.deepgram.com/v1/listen"
	deepgramRestURL = "https://api.deepgram.com/v1/listen"
)

// DeepgramProvider implements live streaming over the Deepgram websocket API
// and single-shot recognition over its prerecorded REST API.
type DeepgramProvider struct {
	apiKey string
	model  string
	client *http.Client
}

func NewDeepgramProvider(apiKey, model string) *DeepgramProvider {
	if model == "" {
		model = "nova-2"
	}
	return &DeepgramProvider{
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *DeepgramProvider) listenParams(language string, phraseHints []string, streaming bool) url.Values {
	params := url.Values{}
	params.Set("model", p.model)
	if language != "" {
		params.Set("language", shortLanguage(language))
	}
	params.Set("encoding", "linear16")
	params.Set("sample_rate", strconv.Itoa(SampleRate))
	params.Set("channels", strconv.Itoa(Channels))
	params.Set("smart_format", "true")
	if streaming {
		params.Set("interim_results", "true")
		params.Set("endpointing", "300")
	}
	for _, hint := range phraseHints {
		params.Add("keywords", hint)
	}
	return params
}

// shortLanguage maps BCP-47 locale tags ("en-US") to what Deepgram expects.
// Deepgram accepts full tags for English but only bare codes for some
// languages, so we keep en-* intact and trim the rest.
func shortLanguage(language string) string {
	if len(language) >= 2 && language[:2] == "en" {
		return language
	}
	if len(language) > 2 && language[2] == '-' {
		return language[:2]
	}
	return language
}

// --- Single shot ---

type deepgramPrerecordedResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func (p *DeepgramProvider) TranscribeOnce(ctx context.Context, audio []byte, language string, phraseHints []string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	endpoint := deepgramRestURL + "?" + p.listenParams(language, phraseHints, false).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+p.apiKey)
	req.Header.Set("Content-Type", "audio/raw")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed deepgramPrerecordedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return parsed.Results.Channels[0].Alternatives[0].Transcript, nil
}

// --- Streaming ---

func (p *DeepgramProvider) NewStreamingSession() StreamingSession {
	return &deepgramStreamingSession{provider: p}
}

// deepgramLiveMessage is the subset of the live-transcription events we need.
type deepgramLiveMessage struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

func (m *deepgramLiveMessage) transcript() string {
	if len(m.Channel.Alternatives) == 0 {
		return ""
	}
	return m.Channel.Alternatives[0].Transcript
}

type deepgramStreamingSession struct {
	provider *DeepgramProvider

	writeMu sync.Mutex
	conn    *websocket.Conn

	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

func (s *deepgramStreamingSession) Start(ctx context.Context, language string, onInterim, onFinal func(string), phraseHints []string) error {
	endpoint := deepgramWsURL + "?" + s.provider.listenParams(language, phraseHints, true).Encode()

	header := http.Header{}
	header.Set("Authorization", "Token "+s.provider.apiKey)

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("deepgram dial failed (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("deepgram dial failed: %w", err)
	}

	s.conn = conn
	s.started = true
	s.done = make(chan struct{})

	// Single reader goroutine: arrival order of events is callback order.
	go func() {
		defer close(s.done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg deepgramLiveMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if msg.Type != "Results" {
				continue
			}
			text := msg.transcript()
			if text == "" {
				continue
			}
			if msg.IsFinal {
				onFinal(text)
			} else {
				onInterim(text)
			}
		}
	}()

	return nil
}

func (s *deepgramStreamingSession) SendAudio(chunk []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if !s.started || s.conn == nil {
		return ErrNotStarted
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}
	return nil
}

// Stop asks Deepgram to flush trailing speech (the final for it arrives on
// the reader before the server closes the stream), then tears the socket
// down. Safe to call on a never-started or already-stopped session.
func (s *deepgramStreamingSession) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.writeMu.Lock()
		if !s.started || s.conn == nil {
			s.writeMu.Unlock()
			return
		}
		s.started = false
		writeErr := s.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
		s.writeMu.Unlock()

		if writeErr == nil {
			select {
			case <-s.done:
			case <-time.After(5 * time.Second):
			}
		}
		err = s.conn.Close()
	})
	return err
}
