package main

import (
	"log"
	"os"

	"github.com/ethanbaker/learnwithai/pkg/utils"
)

func main() {
	// Load global config from ENV_FILE (default .env) and the environment
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	app := newCLIApp(cfg, os.Stdin, os.Stdout)
	if err := app.Run(os.Args); err != nil {
		log.Fatalf("[COMMANDLINE]: %v", err)
	}
}
