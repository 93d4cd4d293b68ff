package main

import (
	"github.com/ethanbaker/learnwithai/internal/api"
	"github.com/ethanbaker/learnwithai/pkg/utils"
)

// Start the API server
func main() {
	// Load global config from ENV_FILE (default .env) and the environment
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	// Start
	api.Start(cfg)
}
