package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// envFile names the dotenv file read at start-up. CALCULATOR_ENV_FILE
// overrides the default.
func envFile() string {
	if path := os.Getenv("CALCULATOR_ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// loadDotEnv loads CALCULATOR_* settings from the dotenv file when present.
// Variables already set in the process environment win.
func loadDotEnv() error {
	path := envFile()
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
