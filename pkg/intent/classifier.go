package intent

import (
	"context"
	"fmt"
	"strings"

	"voice-ordering-be/internal/constant"
	"voice-ordering-be/internal/pkg/logger"
	"voice-ordering-be/pkg/llm"
	"voice-ordering-be/pkg/store"
)

// Classifier turns a transcript plus dialog context into a structured Result
// using the configured LLM backend.
type Classifier struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewClassifier(llmProvider llm.LLMProvider, log logger.ILogger) *Classifier {
	return &Classifier{
		llmProvider: llmProvider,
		logger:      log,
	}
}

// Classify builds the classification conversation and parses the model's JSON
// answer. A transport failure or unparseable answer is returned as an error;
// the caller decides what a failed turn means.
func (c *Classifier) Classify(
	ctx context.Context,
	transcript string,
	history []store.HistoryEntry,
	displayedNames []string,
	basketNames []string,
) (*Result, error) {
	messages := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.IntentSystemPrompt},
	}

	if len(displayedNames) > 0 || len(basketNames) > 0 {
		messages = append(messages, llm.Message{
			Role: constant.ChatMessageRoleSystem,
			Content: fmt.Sprintf("Currently displayed items: [%s]\nCurrent basket: [%s]",
				strings.Join(displayedNames, ", "),
				strings.Join(basketNames, ", ")),
		})
	}

	// Prior utterances give the model context for refinements ("with cheese").
	for _, entry := range history {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleUser,
			Content: entry.Text,
		})
	}

	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: transcript,
	})

	raw, err := c.llmProvider.Chat(ctx, messages,
		llm.WithTemperature(0.1),
		llm.WithMaxTokens(300),
		llm.WithJSONOutput(),
	)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	result, err := ParseResult(raw)
	if err != nil {
		c.logger.Warn("IntentClassifier", "Malformed classifier output", map[string]interface{}{
			"raw":   raw,
			"error": err.Error(),
		})
		return nil, err
	}

	c.logger.Info("IntentClassifier", "Classified utterance", map[string]interface{}{
		"transcript": transcript,
		"intent":     result.Type,
	})

	return result, nil
}
