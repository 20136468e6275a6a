package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/chequera-dev/chequera/internal/commands"
)

func main() {
	// Optional .env overrides, e.g. CHEQUERA_DIR.
	_ = godotenv.Load()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
