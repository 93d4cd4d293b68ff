package utils

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("with nil values", func(t *testing.T) {
		config := NewConfig(nil)
		require.NotNil(t, config)
		assert.Len(t, config.Keys(), 0)
	})

	t.Run("copies input", func(t *testing.T) {
		values := map[string]string{"API_PORT": "8080"}
		config := NewConfig(values)

		values["API_PORT"] = "9090"
		assert.Equal(t, "8080", config.Get("API_PORT"))
	})
}

func TestNewConfigFromEnv(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LWAI_TEST_MODEL=facebook/bart-large-cnn\n"), 0644))
	t.Setenv("LWAI_TEST_PORT", "7000")
	t.Cleanup(func() { os.Unsetenv("LWAI_TEST_MODEL") })

	config := NewConfigFromEnv(envFile, "missing.env")

	assert.Equal(t, "facebook/bart-large-cnn", config.Get("LWAI_TEST_MODEL"))
	assert.Equal(t, "7000", config.Get("LWAI_TEST_PORT"))
}

func TestEnvFile(t *testing.T) {
	t.Setenv("ENV_FILE", "")
	assert.Equal(t, ".env", EnvFile())

	t.Setenv("ENV_FILE", "prod.env")
	assert.Equal(t, "prod.env", EnvFile())
}

func TestConfigGetWithDefault(t *testing.T) {
	config := NewConfig(map[string]string{
		"CHAT_PROVIDER": "gemini",
		"EMPTY":         "",
	})

	assert.Equal(t, "gemini", config.GetWithDefault("CHAT_PROVIDER", "openai"))
	assert.Equal(t, "openai", config.GetWithDefault("MISSING", "openai"))
	assert.Equal(t, "openai", config.GetWithDefault("EMPTY", "openai"))
	assert.Empty(t, config.Get("MISSING"))
}

func TestConfigGetBool(t *testing.T) {
	config := NewConfig(map[string]string{
		"true_bool":      "true",
		"false_bool":     "false",
		"true_1":         "1",
		"false_0":        "0",
		"true_yes":       "yes",
		"false_no":       "no",
		"true_on":        "ON",
		"false_disabled": "disabled",
		"invalid":        "maybe",
		"empty":          "",
	})

	tests := []struct {
		key      string
		def      bool
		expected bool
	}{
		{"true_bool", false, true},
		{"false_bool", true, false},
		{"true_1", false, true},
		{"false_0", true, false},
		{"true_yes", false, true},
		{"false_no", true, false},
		{"true_on", false, true},
		{"false_disabled", true, false},
		{"invalid", true, true},
		{"invalid", false, false},
		{"empty", true, true},
		{"missing", false, false},
	}

	for _, test := range tests {
		t.Run(test.key, func(t *testing.T) {
			assert.Equal(t, test.expected, config.GetBoolWithDefault(test.key, test.def))
		})
	}

	assert.True(t, config.GetBool("true_bool"))
	assert.False(t, config.GetBool("missing"))
}

func TestConfigGetInt(t *testing.T) {
	config := NewConfig(map[string]string{
		"CHUNK_WORDS": "50",
		"NEGATIVE":    "-3",
		"BAD":         "fifty",
	})

	assert.Equal(t, 50, config.GetInt("CHUNK_WORDS"))
	assert.Equal(t, -3, config.GetInt("NEGATIVE"))
	assert.Equal(t, 0, config.GetInt("BAD"))
	assert.Equal(t, 200, config.GetIntWithDefault("BAD", 200))
	assert.Equal(t, 200, config.GetIntWithDefault("MISSING", 200))
}

func TestConfigGetDuration(t *testing.T) {
	config := NewConfig(map[string]string{
		"SESSION_TTL":  "2h",
		"HTTP_TIMEOUT": "90s",
		"BAD":          "soon",
		"NEGATIVE":     "-1s",
	})

	assert.Equal(t, 2*time.Hour, config.GetDurationWithDefault("SESSION_TTL", time.Minute))
	assert.Equal(t, 90*time.Second, config.GetDurationWithDefault("HTTP_TIMEOUT", time.Minute))
	assert.Equal(t, time.Minute, config.GetDurationWithDefault("BAD", time.Minute))
	assert.Equal(t, time.Minute, config.GetDurationWithDefault("NEGATIVE", time.Minute))
	assert.Equal(t, time.Minute, config.GetDurationWithDefault("MISSING", time.Minute))
}

func TestConfigGetList(t *testing.T) {
	config := NewConfig(map[string]string{
		"CORS_ALLOWED_ORIGINS": "http://localhost:3000, https://learn.example.com,,",
	})

	assert.Equal(t, []string{"http://localhost:3000", "https://learn.example.com"}, config.GetList("CORS_ALLOWED_ORIGINS"))
	assert.Nil(t, config.GetList("MISSING"))
}

func TestConfigSetAndKeys(t *testing.T) {
	config := NewConfig(nil)
	config.Set("B", "2")
	config.Set("A", "1")

	keys := config.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"A", "B"}, keys)
	assert.True(t, config.Has("A"))
	assert.False(t, config.Has("C"))
}

func TestConfigConcurrentAccess(t *testing.T) {
	config := NewConfig(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			config.Set("KEY", "value")
		}()
		go func() {
			defer wg.Done()
			_ = config.GetBoolWithDefault("KEY", false)
			_ = config.GetIntWithDefault("KEY", 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, "value", config.Get("KEY"))
}
