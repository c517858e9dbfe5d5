package stt

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// AzureProvider uses the Azure Speech short-audio REST API. It has no
// websocket endpoint we can reach without the native SDK, so streaming
// sessions buffer audio and recognize everything on Stop.
type AzureProvider struct {
	subscriptionKey string
	region          string
	client          *http.Client
}

func NewAzureProvider(subscriptionKey, region string) *AzureProvider {
	return &AzureProvider{
		subscriptionKey: subscriptionKey,
		region:          region,
		client:          &http.Client{Timeout: 60 * time.Second},
	}
}

type azureRecognitionResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func (p *AzureProvider) TranscribeOnce(ctx context.Context, audio []byte, language string, _ []string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	if language == "" {
		language = "en-US"
	}

	endpoint := fmt.Sprintf(
		"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
		p.region, url.QueryEscape(language),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(wavFromPCM(audio)))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", p.subscriptionKey)
	req.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", SampleRate))
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure speech request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure speech error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var parsed azureRecognitionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.RecognitionStatus != "Success" {
		return "", nil
	}
	return parsed.DisplayText, nil
}

// wavFromPCM prepends a RIFF header so the short-audio endpoint accepts raw
// linear16 samples.
func wavFromPCM(pcm []byte) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(pcm))
	byteRate := uint32(SampleRate * Channels * BitsPerSample / 8)
	blockAlign := uint16(Channels * BitsPerSample / 8)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(SampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(BitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(pcm)
	return buf.Bytes()
}

func (p *AzureProvider) NewStreamingSession() StreamingSession {
	return &azureStreamingSession{provider: p}
}

type azureStreamingSession struct {
	provider *AzureProvider

	mu       sync.Mutex
	started  bool
	language string
	hints    []string
	buffer   bytes.Buffer
	onFinal  func(string)
	stopOnce sync.Once
}

func (s *azureStreamingSession) Start(_ context.Context, language string, _ func(string), onFinal func(string), phraseHints []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.language = language
	s.hints = phraseHints
	s.onFinal = onFinal
	return nil
}

func (s *azureStreamingSession) SendAudio(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStarted
	}
	s.buffer.Write(chunk)
	return nil
}

// Stop recognizes the buffered audio in one shot and delivers the result as
// a single final. Interims are never produced on this backend.
func (s *azureStreamingSession) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if !s.started {
			s.mu.Unlock()
			return
		}
		s.started = false
		audio := s.buffer.Bytes()
		language := s.language
		hints := s.hints
		onFinal := s.onFinal
		s.mu.Unlock()

		if len(audio) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var text string
		text, err = s.provider.TranscribeOnce(ctx, audio, language, hints)
		if err != nil || text == "" {
			return
		}
		onFinal(text)
	})
	return err
}
