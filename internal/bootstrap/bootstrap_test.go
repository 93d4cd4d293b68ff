package bootstrap

import (
	"context"
	"strings"
	"testing"

	"github.com/ethanbaker/learnwithai/internal/stores/session"
	"github.com/ethanbaker/learnwithai/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFactories(t *testing.T) {
	for _, provider := range []string{"openai", "gemini", "OpenAI"} {
		t.Run(provider, func(t *testing.T) {
			f, err := NewFactories(utils.NewConfig(map[string]string{"CHAT_PROVIDER": provider}))
			require.NoError(t, err)
			assert.NotNil(t, f.Chat)
			assert.NotNil(t, f.Translator)
			assert.NotNil(t, f.Summarizer)
			assert.NotNil(t, f.LocalSpeech)
		})
	}

	_, err := NewFactories(utils.NewConfig(map[string]string{"CHAT_PROVIDER": "llama"}))
	assert.Error(t, err)
}

func TestNewWorkflow(t *testing.T) {
	cfg := utils.NewConfig(map[string]string{"YOUTUBE_BASE_URL": "http://127.0.0.1:1"})

	wf, err := NewWorkflow(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, wf.Orchestrator)
	assert.Equal(t, DefaultSummarizationModel, wf.Catalog.SummaryModel)
	assert.True(t, wf.Transforms.Matrix().Supports("en", "es"))

	cfg.Set("TRANSLATION_MODELS_PATH", "/does/not/exist.yaml")
	_, err = NewWorkflow(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(utils.NewConfig(map[string]string{
		"MYSQL_USER":          "root",
		"MYSQL_ROOT_PASSWORD": "pw",
		"MYSQL_HOST":          "db",
		"MYSQL_PORT":          "3307",
		"MYSQL_DATABASE":      "learn",
	}))

	assert.True(t, strings.HasPrefix(dsn, "root:pw@tcp(db:3307)/learn?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(utils.NewConfig(nil))
	require.NoError(t, err)
	assert.IsType(t, &session.InMemoryStore{}, store)

	_, err = NewStore(utils.NewConfig(map[string]string{"SESSION_STORE": "redis"}))
	assert.Error(t, err)

	sweeper, err := NewSweeper(utils.NewConfig(nil), store)
	require.NoError(t, err)
	assert.NotNil(t, sweeper)
}
