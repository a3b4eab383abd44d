package config

import (
	"fmt"
	"strings"

	"github.com/akeren/klyr-waitlist/internal/log"
	"github.com/akeren/klyr-waitlist/pkg/utils"
	"github.com/joho/godotenv"
)

const AppEnvKey = "APP_ENV"

// InitializeEnvFile loads ENV_FILE (default ".env") unless SKIP_DOTENV is set.
// Variables already present in the process environment win.
func InitializeEnvFile(logger *log.Logger) {
	if utils.GetBoolEnv("SKIP_DOTENV", false) {
		logger.Debug("Skipping env file load (SKIP_DOTENV=true)")
		return
	}

	path := utils.GetEnvTrimmedOrDefault("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil {
		logger.Debug("No env file loaded", "path", path, "error", err)
		return
	}

	logger.Info("Environment loaded from file", "path", path)
}

func GetAppEnv() string {
	return strings.ToLower(utils.GetEnvTrimmed(AppEnvKey))
}

func ValidateAutoMigrateAllowed(appEnv string) error {
	env := strings.ToLower(strings.TrimSpace(appEnv))

	switch env {
	case "", "dev", "development", "local", "test", "testing":
		return nil
	default:
		return fmt.Errorf("--auto-migrate is not allowed when %s=%q (allowed: \"\", dev, development, local, test, testing)", AppEnvKey, env)
	}
}
