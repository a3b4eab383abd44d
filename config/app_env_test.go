package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/akeren/klyr-waitlist/internal/log"
)

func TestValidateAutoMigrateAllowed_AllowsDevLikeEnvs(t *testing.T) {
	allowed := []string{"", "dev", "development", "local", "test", "testing", "DEV", "  Local  "}

	for _, env := range allowed {
		env := env
		t.Run(env, func(t *testing.T) {
			if err := ValidateAutoMigrateAllowed(env); err != nil {
				t.Fatalf("expected no error for env %q, got %v", env, err)
			}
		})
	}
}

func TestValidateAutoMigrateAllowed_RejectsProdAndOtherEnvs(t *testing.T) {
	rejected := []string{"prod", "production", "staging", "preprod", " Production ", "qa"}

	for _, env := range rejected {
		env := env
		t.Run(env, func(t *testing.T) {
			if err := ValidateAutoMigrateAllowed(env); err == nil {
				t.Fatalf("expected error for env %q, got nil", env)
			}
		})
	}
}

func TestInitializeEnvFile_LoadsEnvFileWithoutOverriding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "klyr.env")
	if err := os.WriteFile(path, []byte("WAITLIST_PUBLISHABLE_KEY=pk_file\nAPP_PORT=9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SKIP_DOTENV", "")
	t.Setenv("ENV_FILE", path)
	t.Setenv("APP_PORT", "8081")
	t.Setenv("WAITLIST_PUBLISHABLE_KEY", "")
	os.Unsetenv("WAITLIST_PUBLISHABLE_KEY")

	InitializeEnvFile(log.NewLoggerWithJSONOutput())

	if got := os.Getenv("WAITLIST_PUBLISHABLE_KEY"); got != "pk_file" {
		t.Fatalf("expected key from env file, got %q", got)
	}
	if got := os.Getenv("APP_PORT"); got != "8081" {
		t.Fatalf("expected process env to win, got %q", got)
	}
}
