package config

import (
	"errors"
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	ProviderDaily   = "daily"
	ProviderLiveKit = "livekit"

	BanCheckFailOpen   = "fail_open"
	BanCheckFailClosed = "fail_closed"
)

type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Provider   ProviderConfig   `yaml:"provider"`
	Identity   IdentityConfig   `yaml:"identity"`
	Storage    StorageConfig    `yaml:"storage"`
	Recordings RecordingsConfig `yaml:"recordings"`
	Token      TokenConfig      `yaml:"token"`
}

type HTTPConfig struct {
	Address      string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowOrigins []string `yaml:"allow_origins" env:"HTTP_ALLOW_ORIGINS" env-separator:","`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN"`
}

type ProviderConfig struct {
	Kind         string        `yaml:"kind" env:"PROVIDER_KIND" env-default:"daily"`
	APIKey       string        `yaml:"api_key" env:"DAILY_API_KEY"`
	BaseURL      string        `yaml:"base_url" env:"DAILY_API_BASE"`
	RoomLifetime time.Duration `yaml:"room_lifetime" env:"ROOM_LIFETIME"`
	LiveKit      LiveKitConfig `yaml:"livekit"`
}

type LiveKitConfig struct {
	APIKey    string        `yaml:"api_key" env:"LIVEKIT_API_KEY"`
	APISecret string        `yaml:"api_secret" env:"LIVEKIT_API_SECRET"`
	URL       string        `yaml:"url" env:"LIVEKIT_URL"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"LIVEKIT_TOKEN_TTL"`
}

type IdentityConfig struct {
	Secret string `yaml:"secret" env:"IDENTITY_SECRET"`
	Issuer string `yaml:"issuer" env:"IDENTITY_ISSUER"`
}

type StorageConfig struct {
	Root string `yaml:"root" env:"STORAGE_ROOT"`
}

type RecordingsConfig struct {
	MonthlyLimit       int `yaml:"monthly_limit" env:"RECORDINGS_MONTHLY_LIMIT"`
	HydrateConcurrency int `yaml:"hydrate_concurrency" env:"RECORDINGS_HYDRATE_CONCURRENCY"`
	PageSize           int `yaml:"page_size" env:"RECORDINGS_PAGE_SIZE"`
}

type TokenConfig struct {
	BanCheckPolicy string `yaml:"ban_check_policy" env:"TOKEN_BAN_CHECK_POLICY"`
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	return &cfg
}

func fetchConfigPath() string {
	var res string

	if f := flag.Lookup("config"); f != nil {
		res = f.Value.String()
	}

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

var ErrMissingIdentitySecret = errors.New("identity secret is not configured (set IDENTITY_SECRET)")

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Identity.Secret == "" {
		return ErrMissingIdentitySecret
	}
	return nil
}

// FailClosed reports whether a failed ban lookup must refuse the token.
func (t TokenConfig) FailClosed() bool {
	return t.BanCheckPolicy == BanCheckFailClosed
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowOrigins) == 0 {
		c.HTTP.AllowOrigins = []string{"http://localhost:3000"}
	}
	if c.Provider.Kind == "" {
		c.Provider.Kind = ProviderDaily
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://api.daily.co/v1"
	}
	if c.Provider.RoomLifetime <= 0 {
		c.Provider.RoomLifetime = time.Hour
	}
	if c.Provider.LiveKit.TokenTTL <= 0 {
		c.Provider.LiveKit.TokenTTL = 6 * time.Hour
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "./data"
	}
	if c.Recordings.MonthlyLimit <= 0 {
		c.Recordings.MonthlyLimit = 100
	}
	if c.Recordings.HydrateConcurrency <= 0 {
		c.Recordings.HydrateConcurrency = 3
	}
	if c.Recordings.PageSize <= 0 {
		c.Recordings.PageSize = 20
	}
	if c.Token.BanCheckPolicy == "" {
		c.Token.BanCheckPolicy = BanCheckFailOpen
	}
}
