package env

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultPath = ".env"

// LoadDotEnv loads environment variables from a .env file without
// overriding variables already set in the process. The ENV_PATH variable
// takes precedence over defaultPath. A missing file is not an error.
func LoadDotEnv(defaultPath string) error {
	envPath := os.Getenv("ENV_PATH")
	if envPath == "" {
		slog.Debug("ENV_PATH is not set, using default path", "defaultPath", defaultPath)
		envPath = defaultPath
	}

	if err := godotenv.Load(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			slog.Debug("Skipping .env ...", "path", envPath)
			return nil
		}
		return err
	}
	slog.Info("Loaded environment file", "path", envPath)
	return nil
}

// StringOr returns the trimmed value of key, or fallback when it is unset or
// blank.
func StringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
