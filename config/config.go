package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ContentURL        string
	OutputDir         string
	Hotkey            string
	PostLimit         int
	EnableFileLogging bool
}

const (
	defaultContentURL = "https://dummyjson.com/posts"
	defaultHotkey     = "Ctrl+Shift+Q"
	defaultPostLimit  = 10
)

func Load() (*Config, error) {
	// Try to load .env file from current directory or executable directory
	envPaths := []string{".env"}

	// If running as executable, also try the executable's directory
	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		envPaths = append(envPaths, filepath.Join(execDir, ".env"))
	}

	// Try to load .env file (ignore errors if file doesn't exist)
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			godotenv.Load(envPath)
			break
		}
	}

	cfg := &Config{
		ContentURL:        getEnvWithDefault("CONTENT_URL", defaultContentURL),
		OutputDir:         getEnvWithDefault("OUTPUT_DIR", defaultOutputDir()),
		Hotkey:            getEnvWithDefault("HOTKEY", defaultHotkey),
		PostLimit:         getEnvIntWithDefault("POST_LIMIT", defaultPostLimit),
		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func defaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "tjm-project")
	}
	return filepath.Join(home, "Desktop", "tjm-project")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
