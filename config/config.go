// Package config loads the static run configuration: a JSON config file with
// an optional .env overlay for secrets.
package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/subosito/gotenv"
)

const (
	DefaultConfigFile = "config.json"
	defaultPostLimit  = 25
	defaultStateFile  = "scraped_posts.json"
	defaultLogFile    = "skypulse.log"
)

type Config struct {
	BlueskyHandle   string `json:"bluesky_handle" validate:"required"`
	BlueskyPassword string `json:"bluesky_password" validate:"required"`
	BlueskyHost     string `json:"bluesky_host"`

	SpreadsheetID         string `json:"spreadsheet_id" validate:"required"`
	SheetName             string `json:"sheet_name" validate:"required"`
	GoogleCredentialsFile string `json:"google_credentials_file" validate:"required"`

	OpenAIAPIKey string `json:"openai_api_key" validate:"required"`

	UserListFile      string `json:"user_list_file" validate:"required"`
	PostLimit         int    `json:"post_limit" validate:"min=1"`
	DelayBetweenUsers int    `json:"delay_between_users" validate:"min=0"`

	StateFile string `json:"state_file"`
	LogFile   string `json:"log_file"`
}

// LoadEnv pulls a local .env into the process environment before the config
// file is read, so secrets can stay out of config.json.
func LoadEnv() {
	if err := gotenv.Load(); err != nil {
		slog.Warn("No .env file found, using OS environment")
	}
}

// Load reads and validates the config file. Environment variables override
// the credential fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("BSKY_HANDLE"); v != "" {
		cfg.BlueskyHandle = v
	}
	if v := os.Getenv("BSKY_PASSWORD"); v != "" {
		cfg.BlueskyPassword = v
	}

	if cfg.PostLimit == 0 {
		cfg.PostLimit = defaultPostLimit
	}
	if cfg.StateFile == "" {
		cfg.StateFile = defaultStateFile
	}
	if cfg.LogFile == "" {
		cfg.LogFile = defaultLogFile
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// ReadUserList loads the handles to scrape, one per line. Blank lines and
// lines starting with '#' are skipped.
func ReadUserList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read user list %s: %w", path, err)
	}
	defer f.Close()

	var users []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		users = append(users, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read user list %s: %w", path, err)
	}
	return users, nil
}
