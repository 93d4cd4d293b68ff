// Package bootstrap wires providers, pipelines and stores from configuration.
// Both the API server and the command line build their workflow here.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ethanbaker/learnwithai/internal/pipelines"
	"github.com/ethanbaker/learnwithai/internal/providers/huggingface"
	"github.com/ethanbaker/learnwithai/internal/providers/youtube"
	"github.com/ethanbaker/learnwithai/internal/stores/session"
	"github.com/ethanbaker/learnwithai/pkg/narration"
	"github.com/ethanbaker/learnwithai/pkg/transform"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"github.com/ethanbaker/learnwithai/pkg/workflow"
	"github.com/go-sql-driver/mysql"

	gemini_provider "github.com/ethanbaker/learnwithai/internal/providers/gemini"
	openai_provider "github.com/ethanbaker/learnwithai/internal/providers/openai"
)

const (
	DefaultSummarizationModel = "facebook/bart-large-cnn"
	DefaultTTSModel           = "microsoft/VibeVoice-1.5B"
)

// Workflow bundles everything an orchestrator needs
type Workflow struct {
	Catalog      *pipelines.Catalog
	Transforms   *transform.Service
	Source       *youtube.Client
	Orchestrator *workflow.Orchestrator
}

// NewWorkflow builds the orchestrator and its collaborators from cfg
func NewWorkflow(ctx context.Context, cfg *utils.Config) (*Workflow, error) {
	factories, err := NewFactories(cfg)
	if err != nil {
		return nil, err
	}

	catalog := pipelines.NewCatalog(
		factories,
		cfg.GetWithDefault("SUMMARIZATION_MODEL", DefaultSummarizationModel),
		cfg.GetWithDefault("TTS_MODEL", DefaultTTSModel),
	)

	matrix := transform.DefaultMatrix()
	if path := cfg.Get("TRANSLATION_MODELS_PATH"); path != "" {
		if matrix, err = transform.LoadMatrix(path); err != nil {
			return nil, fmt.Errorf("failed to load translation models: %w", err)
		}
	}

	opts := transform.DefaultOptions()
	opts.PromptsDir = cfg.GetWithDefault("PROMPTS_DIR", opts.PromptsDir)
	transforms := transform.NewService(matrix, catalog, opts)

	source, err := youtube.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	orchestrator := workflow.NewOrchestrator(workflow.Dependencies{
		Source:      source,
		Transforms:  transforms,
		Voices:      catalog,
		Credentials: catalog,
		Narrator:    narration.NewNarrator(cfg.GetIntWithDefault("NARRATION_CHUNK_WORDS", narration.DefaultChunkWords)),
	})

	return &Workflow{
		Catalog:      catalog,
		Transforms:   transforms,
		Source:       source,
		Orchestrator: orchestrator,
	}, nil
}

// NewFactories binds the local pipelines to the Hugging Face inference API
// and the chat pipeline to the provider named by CHAT_PROVIDER
func NewFactories(cfg *utils.Config) (pipelines.Factories, error) {
	hf := huggingface.NewFromConfig(cfg)

	f := pipelines.Factories{
		Translator: func(_ context.Context, model string) (transform.Translator, error) {
			return hf.Translator(model), nil
		},
		Summarizer: func(_ context.Context, model string) (transform.Summarizer, error) {
			return hf.Summarizer(model), nil
		},
		LocalSpeech: func(_ context.Context, model string) (narration.Synthesizer, error) {
			return hf.Speech(model), nil
		},
	}

	provider := strings.ToLower(cfg.GetWithDefault("CHAT_PROVIDER", "openai"))
	switch provider {
	case "openai":
		settings := openai_provider.SettingsFromConfig(cfg)
		f.Chat = func(_ context.Context, credential string) (pipelines.ChatClient, error) {
			return openai_provider.New(credential, settings), nil
		}
	case "gemini":
		settings := gemini_provider.SettingsFromConfig(cfg)
		f.Chat = func(ctx context.Context, credential string) (pipelines.ChatClient, error) {
			client, err := gemini_provider.New(ctx, credential, settings)
			if err != nil {
				return nil, err
			}
			return client, nil
		}
	default:
		return f, fmt.Errorf("unknown CHAT_PROVIDER %q (expected openai or gemini)", provider)
	}

	log.Printf("[BOOTSTRAP]: chat provider is %s", provider)
	return f, nil
}

// MySQLDSN builds the MySQL connection string from MYSQL_* settings
func MySQLDSN(cfg *utils.Config) string {
	dbConfig := mysql.Config{
		User:                 cfg.Get("MYSQL_USER"),
		Passwd:               cfg.Get("MYSQL_ROOT_PASSWORD"),
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%s", cfg.GetWithDefault("MYSQL_HOST", "localhost"), cfg.GetWithDefault("MYSQL_PORT", "3306")),
		DBName:               cfg.Get("MYSQL_DATABASE"),
		ParseTime:            true,
		AllowNativePasswords: true,
	}
	return dbConfig.FormatDSN()
}

// NewStore opens the session store named by SESSION_STORE
func NewStore(cfg *utils.Config) (workflow.Store, error) {
	switch kind := strings.ToLower(cfg.GetWithDefault("SESSION_STORE", "memory")); kind {
	case "memory":
		return session.NewInMemoryStore(), nil
	case "mysql":
		store, err := session.NewMySqlStore(MySQLDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown SESSION_STORE %q (expected memory or mysql)", kind)
	}
}

// NewSweeper schedules expiry of idle sessions from SESSION_TTL and
// SESSION_SWEEP_SCHEDULE
func NewSweeper(cfg *utils.Config, store workflow.Store) (*session.Sweeper, error) {
	return session.NewSweeper(
		store,
		cfg.GetDurationWithDefault("SESSION_TTL", 2*time.Hour),
		cfg.GetWithDefault("SESSION_SWEEP_SCHEDULE", "@every 10m"),
	)
}
