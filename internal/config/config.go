package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"reelgrab/internal/adapters/ytdlp"
)

const (
	StoreDriverJSON     = "json"
	StoreDriverPostgres = "postgres"
)

// Config is the full runtime configuration, read from an optional YAML file
// and then overridden by environment variables.
type Config struct {
	HostAddr string `yaml:"host" env:"HOST_ADDR" env-default:"0.0.0.0"`
	HostPort string `yaml:"port" env:"PORT" env-default:"3000"`
	WebDir   string `yaml:"web_dir" env:"WEB_DIR"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`

	Storage   StorageConfig   `yaml:"storage"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Enrich    EnrichConfig    `yaml:"enrich"`

	// AudioFailureFatal aborts a download when audio extraction fails. The
	// default keeps the downloaded video and records it without audio.
	AudioFailureFatal bool `yaml:"audio_failure_fatal" env:"AUDIO_FAILURE_FATAL" env-default:"false"`
}

// StorageConfig locates downloaded artifacts and the result store.
type StorageConfig struct {
	DownloadsDir string `yaml:"downloads_dir" env:"DOWNLOADS_DIR" env-default:"./downloads"`
	AudiosDir    string `yaml:"audios_dir" env:"AUDIOS_DIR" env-default:"./audios"`
	DataDir      string `yaml:"data_dir" env:"DATA_DIR" env-default:"./data"`

	Driver     string        `yaml:"driver" env:"STORE_DRIVER" env-default:"json"`
	DSN        string        `yaml:"dsn" env:"DATABASE_URL"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"DATABASE_RETRY_DELAY" env-default:"2s"`
}

// ExtractorConfig controls how yt-dlp is launched and which flags it gets.
type ExtractorConfig struct {
	Binary          string        `yaml:"binary" env:"EXTRACTOR_BINARY"`
	Interpreter     string        `yaml:"interpreter" env:"EXTRACTOR_INTERPRETER" env-default:"python3"`
	Module          string        `yaml:"module" env:"EXTRACTOR_MODULE" env-default:"yt_dlp"`
	FfmpegPath      string        `yaml:"ffmpeg_path" env:"FFMPEG_PATH"`
	ToolPathDirs    []string      `yaml:"tool_path_dirs" env:"TOOL_PATH_DIRS" env-separator:","`
	ProbeTimeout    time.Duration `yaml:"probe_timeout" env:"PROBE_TIMEOUT" env-default:"60s"`
	DownloadTimeout time.Duration `yaml:"download_timeout" env:"DOWNLOAD_TIMEOUT" env-default:"10m"`

	UserAgent           string `yaml:"user_agent" env:"EXTRACTOR_USER_AGENT"`
	TikTokExtractorArgs string `yaml:"tiktok_extractor_args" env:"TIKTOK_EXTRACTOR_ARGS"`

	InstagramSleepRequests    int `yaml:"instagram_sleep_requests" env:"INSTAGRAM_SLEEP_REQUESTS" env-default:"1"`
	InstagramSleepInterval    int `yaml:"instagram_sleep_interval" env:"INSTAGRAM_SLEEP_INTERVAL" env-default:"2"`
	InstagramMaxSleepInterval int `yaml:"instagram_max_sleep_interval" env:"INSTAGRAM_MAX_SLEEP_INTERVAL" env-default:"5"`
	InstagramRetries          int `yaml:"instagram_retries" env:"INSTAGRAM_RETRIES" env-default:"5"`
	InstagramExtractorRetries int `yaml:"instagram_extractor_retries" env:"INSTAGRAM_EXTRACTOR_RETRIES" env-default:"3"`
}

// EnrichConfig controls the OpenGraph page fallback.
type EnrichConfig struct {
	OpenGraph bool          `yaml:"opengraph" env:"OPENGRAPH_FALLBACK" env-default:"true"`
	Timeout   time.Duration `yaml:"timeout" env:"OPENGRAPH_TIMEOUT" env-default:"10s"`
}

// Load reads the configuration. When path is empty only the environment is
// consulted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Usage returns a description of every supported environment variable.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StoreDriverJSON:
	case StoreDriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("store driver %q requires DATABASE_URL", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Storage.Driver)
	}

	return nil
}

// ListenAddr is the host:port the HTTP server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.HostAddr, c.HostPort)
}

// ResultsPath is the file used by the JSON result store.
func (c *Config) ResultsPath() string {
	return filepath.Join(c.Storage.DataDir, "downloads.json")
}

// InvokerConfig translates the extractor section into ytdlp settings,
// falling back to the built-in profile defaults for unset values.
func (c *Config) InvokerConfig() ytdlp.Config {
	profile := ytdlp.DefaultProfileConfig()
	if c.Extractor.UserAgent != "" {
		profile.UserAgent = c.Extractor.UserAgent
	}
	if c.Extractor.TikTokExtractorArgs != "" {
		profile.TikTokExtractorArgs = c.Extractor.TikTokExtractorArgs
	}
	profile.FfmpegPath = c.Extractor.FfmpegPath
	profile.InstagramSleepRequests = c.Extractor.InstagramSleepRequests
	profile.InstagramSleepInterval = c.Extractor.InstagramSleepInterval
	profile.InstagramMaxSleepInterval = c.Extractor.InstagramMaxSleepInterval
	profile.InstagramRetries = c.Extractor.InstagramRetries
	profile.InstagramExtractorRetries = c.Extractor.InstagramExtractorRetries

	return ytdlp.Config{
		Binary:          c.Extractor.Binary,
		Interpreter:     c.Extractor.Interpreter,
		Module:          c.Extractor.Module,
		ProbeTimeout:    c.Extractor.ProbeTimeout,
		DownloadTimeout: c.Extractor.DownloadTimeout,
		Profile:         profile,
	}
}
