package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interviewer/internal/ai"
	"github.com/spigell/interviewer/internal/ai/gemini"
	"github.com/spigell/interviewer/internal/ai/openai"
	"github.com/spigell/interviewer/internal/archive"
	"github.com/spigell/interviewer/internal/evaluator"
	"github.com/spigell/interviewer/internal/extract"
	"github.com/spigell/interviewer/internal/interview"
	"github.com/spigell/interviewer/internal/logger"
	"github.com/spigell/interviewer/internal/questions"
	"github.com/spigell/interviewer/internal/secrets"
	"github.com/spigell/interviewer/internal/store"
	"github.com/spigell/interviewer/internal/transcription"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"

	archiveNone  = "none"
	archiveLocal = "local"
	archiveS3    = "s3"
)

// providers holds the language model and the speech engine. Either may share
// the same underlying client.
type providers struct {
	llm        ai.Completer
	speech     ai.Transcriber
	speechErr  error
	gemini     *gemini.Generator
	openai     *openai.Client
	llmName    string
	llmModel   string
	speechName string
}

func normalizeProvider(name, fallback string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fallback
	}
	return name
}

func newGemini(ctx context.Context, cfg *Config, log *zap.Logger) (*gemini.Generator, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	genLogger := log.With(
		zap.String("provider", providerGemini),
		zap.String("model", cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	return gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
}

func newOpenAI(cfg *Config, log *zap.Logger) (*openai.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "openai api key",
		Value: cfg.OpenAI.APIKey,
		File:  cfg.OpenAI.APIKeyFile,
		Env:   "OPENAI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set openai.api-key-file or OPENAI_API_KEY)", err)
	}

	return openai.New(openai.Config{
		APIKey:             apiKey,
		BaseURL:            cfg.OpenAI.BaseURL,
		Model:              cfg.OpenAI.Model,
		TranscriptionModel: cfg.OpenAI.TranscriptionModel,
		AudioMIME:          cfg.Transcription.MimeType,
		MaxRetries:         cfg.OpenAI.MaxRetries,
	}, log.With(zap.String("provider", providerOpenAI)))
}

// newProviders builds the language model. A speech engine that cannot be
// built is not fatal: the interview still starts and every turn reports it.
func newProviders(ctx context.Context, cfg *Config, log *zap.Logger) (*providers, error) {
	p := &providers{
		llmName:    normalizeProvider(cfg.LLM.Provider, providerGemini),
		speechName: normalizeProvider(cfg.Transcription.Provider, normalizeProvider(cfg.LLM.Provider, providerGemini)),
	}

	switch p.llmName {
	case providerGemini:
		g, err := newGemini(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		p.gemini = g
		p.llmModel = g.Model()
		p.llm = ai.WithCompleteTimeout(g, cfg.LLM.Timeout)
	case providerOpenAI:
		c, err := newOpenAI(cfg, log)
		if err != nil {
			return nil, err
		}
		p.openai = c
		p.llmModel = c.Model()
		p.llm = ai.WithCompleteTimeout(c, cfg.LLM.Timeout)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}

	var engine ai.Transcriber
	switch p.speechName {
	case providerGemini:
		if p.gemini == nil {
			p.gemini, p.speechErr = newGemini(ctx, cfg, log)
		}
		if p.gemini != nil {
			engine = p.gemini.Transcriber(cfg.Gemini.TranscriptionModel, cfg.Transcription.MimeType)
		}
	case providerOpenAI:
		if p.openai == nil {
			p.openai, p.speechErr = newOpenAI(cfg, log)
		}
		if p.openai != nil {
			engine = p.openai
		}
	default:
		p.speechErr = fmt.Errorf("unsupported transcription provider: %s", cfg.Transcription.Provider)
	}
	if engine != nil {
		p.speech = ai.WithTranscribeTimeout(engine, cfg.Transcription.Timeout)
	}

	return p, nil
}

func newArchive(cfg *ArchiveConfig, log *zap.Logger) (*archive.Archive, error) {
	driver := normalizeProvider(cfg.Driver, archiveNone)
	log = log.With(zap.String("archive", driver))

	switch driver {
	case archiveNone:
		return archive.New(nil, log), nil
	case archiveLocal:
		local, err := archive.NewLocal(cfg.Local.Dir)
		if err != nil {
			return nil, err
		}
		return archive.New(local, log), nil
	case archiveS3:
		if strings.TrimSpace(cfg.S3.Bucket) == "" {
			return nil, errors.New("archive.s3.bucket is required")
		}
		opts := archive.S3Options{Region: cfg.S3.Region, Endpoint: cfg.S3.Endpoint}
		if cfg.S3.AccessKeyID != "" || cfg.S3.AccessKeyIDFile != "" {
			var err error
			if opts.AccessKeyID, err = secrets.Load(secrets.Source{
				Name:  "s3 access key id",
				Value: cfg.S3.AccessKeyID,
				File:  cfg.S3.AccessKeyIDFile,
			}); err != nil {
				return nil, err
			}
			if opts.SecretAccessKey, err = secrets.Load(secrets.Source{
				Name:  "s3 secret access key",
				Value: cfg.S3.SecretAccessKey,
				File:  cfg.S3.SecretAccessKeyFile,
			}); err != nil {
				return nil, err
			}
		}
		client, err := archive.NewS3Client(opts)
		if err != nil {
			return nil, err
		}
		return archive.New(archive.NewS3(client, cfg.S3.Bucket, cfg.S3.Prefix), log), nil
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
}

// application bundles the service with the resources that must be released on exit.
type application struct {
	service *interview.Service
	store   store.Store
}

func (a *application) Close(ctx context.Context) error {
	return a.store.Close(ctx)
}

func newApplication(ctx context.Context, cfg *Config, log *zap.Logger) (*application, error) {
	p, err := newProviders(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("building llm provider: %w", err)
	}

	llmLogger := logger.WithCommonFields(log, p.llmName, p.llmModel)
	speechLogger := log.With(zap.String("provider", p.speechName))

	st, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	arch, err := newArchive(&cfg.Archive, log)
	if err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("building upload archive: %w", err)
	}

	maxLog := cfg.LLM.MaxLogLength
	gen := questions.New(p.llm, llmLogger, questions.Options{
		MaxQuestions:          cfg.Interview.MaxQuestions,
		RecruiterMaxQuestions: cfg.Interview.RecruiterMaxQuestions,
		MaxLogLength:          maxLog,
	})
	eval := evaluator.New(p.llm, llmLogger, maxLog)
	speech := newSpeech(p, speechLogger, maxLog)

	svc := interview.NewService(interview.Deps{
		Extractor:    extract.New(log),
		Archive:      arch,
		Questions:    gen,
		Store:        st,
		Registry:     interview.NewRegistry(),
		Orchestrator: interview.NewOrchestrator(st, speech, eval, log, maxLog),
		Logger:       log,
	})

	return &application{service: svc, store: st}, nil
}

// newSpeech wraps the speech engine. An engine that failed to build is
// reported now so operators see it before the first answer arrives.
func newSpeech(p *providers, log *zap.Logger, maxLogLen int) *transcription.Adapter {
	speech := transcription.New(p.speech, p.speechErr, log, maxLogLen)
	if !speech.Available() {
		log.Warn("speech transcription is unavailable, every answer will be reported as a failed turn",
			zap.String("provider", p.speechName))
	}
	return speech
}
