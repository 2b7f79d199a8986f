package config

import (
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret" env:"JWT_SECRET"`
	APIKey         string `yaml:"api_key" env:"HUB_API_KEY"`
	ServiceToken   string `yaml:"service_token" env:"HUB_SERVICE_TOKEN"`
	InternalAPIKey string `yaml:"internal_api_key" env:"HUB_INTERNAL_API_KEY"`
}

type HubConfig struct {
	PublicBaseURL string `yaml:"public_base_url" env:"PUBLIC_BASE_URL"`
	AllowNewUsers bool   `yaml:"allow_new_users" env:"ALLOW_NEW_USERS"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	BotUsername string `yaml:"bot_username" env:"TELEGRAM_BOT_USERNAME"`
}

type VerificationConfig struct {
	TTLSeconds  int  `yaml:"ttl_seconds" env:"VERIFICATION_TTL_SECONDS"`
	MaxAttempts int  `yaml:"max_attempts" env:"VERIFICATION_MAX_ATTEMPTS"`
	AllowRelink bool `yaml:"allow_relink" env:"VERIFICATION_ALLOW_RELINK"`
}

type JobsConfig struct {
	// 0 выключает автоматический возврат зависших задач в очередь.
	RequeueAfterSeconds int `yaml:"requeue_after_seconds" env:"JOBS_REQUEUE_AFTER_SECONDS"`
	RecentLimit         int `yaml:"recent_limit" env:"JOBS_RECENT_LIMIT"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port" env:"PORT"`
	} `yaml:"server"`
	Database struct {
		DSN string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Hub          HubConfig          `yaml:"hub"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Verification VerificationConfig `yaml:"verification"`
	Jobs         JobsConfig         `yaml:"jobs"`
}

// LoadConfig reads config/config.yaml and overlays environment variables on
// top of it. A missing file is fine (env-only deployments), a broken one is not.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = 8000
	cfg.Hub.PublicBaseURL = "http://localhost:8000"
	cfg.Verification.TTLSeconds = 300
	cfg.Verification.MaxAttempts = 5
	cfg.Verification.AllowRelink = true
	cfg.Jobs.RecentLimit = 5

	f, err := os.Open("config/config.yaml")
	if err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	} else if !os.IsNotExist(err) {
		panic("Failed to open config.yaml: " + err.Error())
	}

	if err := env.Parse(cfg); err != nil {
		panic("Failed to parse environment: " + err.Error())
	}
	return cfg
}
