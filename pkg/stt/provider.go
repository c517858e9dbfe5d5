package stt

import (
	"context"
	"errors"
	"fmt"
)

// Audio format agreed with every provider: 16 kHz, 16-bit, mono, linear PCM.
const (
	SampleRate    = 16000
	BitsPerSample = 16
	Channels      = 1
)

var (
	// ErrNotStarted is returned by SendAudio before Start or after Stop.
	ErrNotStarted = errors.New("stt: streaming session not started")
)

// StreamingSession pipes live PCM audio into a continuous recognizer.
//
// onInterim fires zero or more times per utterance with unstable partial
// text, in arrival order. onFinal fires exactly once per recognized utterance
// with stable text; finals for distinct utterances arrive in order. Both
// callbacks run on the provider's reader goroutine; callers must marshal them
// onto their own loop before touching shared state.
type StreamingSession interface {
	Start(ctx context.Context, language string, onInterim, onFinal func(text string), phraseHints []string) error

	// SendAudio feeds one chunk of capture-ordered PCM. Calls must be
	// serialized per session.
	SendAudio(chunk []byte) error

	// Stop flushes buffered audio, requests a final result for trailing
	// speech and releases provider resources. Idempotent.
	Stop() error
}

// Provider is one speech back-end.
type Provider interface {
	// TranscribeOnce recognizes a complete utterance synchronously.
	TranscribeOnce(ctx context.Context, audio []byte, language string, phraseHints []string) (string, error)

	NewStreamingSession() StreamingSession
}

// Config carries the provider credentials; only the selected provider's
// fields are read.
type Config struct {
	Provider       string
	DeepgramAPIKey string
	DeepgramModel  string
	AzureKey       string
	AzureRegion    string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "deepgram":
		if cfg.DeepgramAPIKey == "" {
			return nil, fmt.Errorf("deepgram provider requires an API key")
		}
		return NewDeepgramProvider(cfg.DeepgramAPIKey, cfg.DeepgramModel), nil
	case "azure":
		if cfg.AzureKey == "" {
			return nil, fmt.Errorf("azure provider requires a subscription key")
		}
		return NewAzureProvider(cfg.AzureKey, cfg.AzureRegion), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s", cfg.Provider)
	}
}
