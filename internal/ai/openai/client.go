// Package openai adapts the OpenAI API to the interview collaborator contracts:
// chat completions for questions and evaluations, audio transcriptions for answers.
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
)

const (
	defaultModel              = "gpt-4.1-mini"
	defaultTranscriptionModel = "whisper-1"
)

var (
	_ ai.Completer   = (*Client)(nil)
	_ ai.Transcriber = (*Client)(nil)
)

// Config describes how to reach the OpenAI API.
type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	TranscriptionModel string
	// AudioMIME is used when the audio container cannot be sniffed.
	AudioMIME  string
	MaxRetries int
}

type Client struct {
	client             openai.Client
	model              string
	transcriptionModel string
	audioMIME          string
	logger             *zap.Logger
}

func New(cfg Config, logger *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	transcriptionModel := strings.TrimSpace(cfg.TranscriptionModel)
	if transcriptionModel == "" {
		transcriptionModel = defaultTranscriptionModel
	}

	audioMIME := cfg.AudioMIME
	if audioMIME == "" {
		audioMIME = "audio/wav"
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		client:             openai.NewClient(opts...),
		model:              model,
		transcriptionModel: transcriptionModel,
		audioMIME:          audioMIME,
		logger:             logger,
	}, nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return "", errors.New("prompt must not be empty")
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", errors.New("openai returned empty response")
	}

	c.logger.Debug("openai chat completed",
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
	)

	return content, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	mimeType := ai.DetectAudioMIME(audio, c.audioMIME)
	name := "answer" + ai.AudioExtension(mimeType)

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(audio), name, mimeType),
		Model: openai.AudioModel(c.transcriptionModel),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}

	c.logger.Debug("openai transcription completed",
		zap.String("mime_type", mimeType),
		zap.Int("audio_bytes", len(audio)),
	)

	return strings.TrimSpace(resp.Text), nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) TranscriptionModel() string { return c.transcriptionModel }
