package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds everything the client needs to reach the back office API
// and to keep its local state between runs.
type Config struct {
	API     API    `yaml:"api"`
	State   State  `yaml:"state"`
	AppName string `yaml:"app_name" env:"SALIHATE_APP_NAME" env-default:"Salihate"`
}

type API struct {
	// BaseURL points at the REST backend. Every resource path is
	// resolved relative to it.
	BaseURL string `yaml:"base_url" env:"SALIHATE_API_BASE_URL" env-default:"http://localhost:3000/api"`
}

type State struct {
	// SessionFile is where the persisted session (tokens + identity)
	// lives between runs.
	SessionFile string `yaml:"session_file" env:"SALIHATE_SESSION_FILE" env-default:".salihate/session.json"`
	// SessionPassphrase, when set, seals the session file at rest.
	SessionPassphrase string `yaml:"session_passphrase" env:"SALIHATE_SESSION_PASSPHRASE"`
	// DownloadDir receives generated PDFs (bulletins, receipts).
	DownloadDir string `yaml:"download_dir" env:"SALIHATE_DOWNLOAD_DIR" env-default:"downloads"`
}

// Load reads configuration from the optional file at path, then from the
// environment. A missing file is not an error; the environment and the
// defaults carry the full configuration on their own.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, &cfg); err != nil {
				return nil, errors.Wrap(err, "[config.Load] ReadConfig")
			}
			return &cfg, nil
		}
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, errors.Wrap(err, "[config.Load] ReadEnv")
	}
	return &cfg, nil
}
