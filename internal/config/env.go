package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads a local .env file into the process environment, so that
// XTOP_CONFIG can be set per checkout. Existing variables win.
func LoadEnv(log *slog.Logger, files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			log.Warn("Failed to load env file", "file", file, "err", err)
			continue
		}
		log.Debug("Loaded env file", "file", file)
	}
}
