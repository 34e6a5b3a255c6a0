package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const appName = "replyloop"

// LLM provider identifiers
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Browser engine identifiers
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
)

// Scroll count bounds accepted from the operator
const (
	MinScrollCount     = 1
	MaxScrollCount     = 10
	DefaultScrollCount = 3
)

// Config holds all application configuration
type Config struct {
	Version  int            `toml:"version"`
	Topic    TopicConfig    `toml:"topic"`
	Scraping ScrapingConfig `toml:"scraping"`
	Analysis AnalysisConfig `toml:"analysis"`
	Reply    ReplyConfig    `toml:"reply"`
	Files    FilesConfig    `toml:"files"`
	Server   ServerConfig   `toml:"server"`
	Email    EmailConfig    `toml:"email"`
}

// TopicConfig describes what counts as on-topic for the classifier
type TopicConfig struct {
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

type ScrapingConfig struct {
	Engine              string `toml:"engine"`
	Headless            bool   `toml:"headless"`
	TimelineURL         string `toml:"timeline_url"`
	ScrollCount         int    `toml:"scroll_count"`
	SettleDelayMS       int    `toml:"settle_delay_ms"`
	LoginTimeoutSeconds int    `toml:"login_timeout_seconds"`
}

type AnalysisConfig struct {
	LLMProvider string `toml:"llm_provider"`
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	BaseURL     string `toml:"base_url"`
}

type ReplyConfig struct {
	GeneratePost bool     `toml:"generate_post"`
	NewsFeeds    []string `toml:"news_feeds"`
	MaxHeadlines int      `toml:"max_headlines"`
}

// FilesConfig holds the hand-off file locations. Empty values resolve to defaults.
type FilesConfig struct {
	DataFile       string `toml:"data_file"`
	ResultsFile    string `toml:"results_file"`
	SessionFile    string `toml:"session_file"`
	ScreenshotFile string `toml:"screenshot_file"`
	HistoryDB      string `toml:"history_db"`
}

type ServerConfig struct {
	Addr            string `toml:"addr"`
	AnalyzeSchedule string `toml:"analyze_schedule"`
	Timezone        string `toml:"timezone"`
}

type EmailConfig struct {
	Provider string `toml:"provider"`
	SMTPHost string `toml:"smtp_host"`
	SMTPPort int    `toml:"smtp_port"`
	SMTPUser string `toml:"smtp_user"`
	SMTPPass string `toml:"smtp_pass"`
	FromAddr string `toml:"from_address"`
	ToAddr   string `toml:"to_address"`
}

// Enabled reports whether enough email settings exist to send notifications
func (e EmailConfig) Enabled() bool {
	return e.SMTPHost != "" && e.ToAddr != ""
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Topic: TopicConfig{
			Name: "technology",
			Description: "AI/ML, software development, programming, hardware, startups, VC funding, " +
				"tech companies, developer tools, frameworks, APIs, cloud services, tech industry news, " +
				"product launches, and scaling tech businesses",
		},
		Scraping: ScrapingConfig{
			Engine:              EngineChromedp,
			Headless:            false,
			TimelineURL:         "https://x.com/home?lang=en",
			ScrollCount:         DefaultScrollCount,
			SettleDelayMS:       2000,
			LoginTimeoutSeconds: 120,
		},
		Analysis: AnalysisConfig{
			LLMProvider: ProviderOpenAI,
			Model:       "gpt-4o",
		},
		Reply: ReplyConfig{
			GeneratePost: false,
			NewsFeeds: []string{
				"https://hnrss.org/frontpage",
				"https://www.technologyreview.com/feed/",
			},
			MaxHeadlines: 10,
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:5000",
			Timezone: "Local",
		},
		Email: EmailConfig{
			Provider: "smtp",
			SMTPPort: 587,
		},
	}
}

// SettleDelay returns the pause after each scroll
func (s ScrapingConfig) SettleDelay() time.Duration {
	return time.Duration(s.SettleDelayMS) * time.Millisecond
}

// LoginTimeout returns the bound on the manual login wait
func (s ScrapingConfig) LoginTimeout() time.Duration {
	return time.Duration(s.LoginTimeoutSeconds) * time.Second
}

// ClampScrollCount substitutes the default for values outside 1-10.
// The second return value is false when a substitution happened.
func ClampScrollCount(n int) (int, bool) {
	if n < MinScrollCount || n > MaxScrollCount {
		return DefaultScrollCount, false
	}
	return n, true
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// CacheDir returns the platform-appropriate cache directory
func CacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, appName), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from the given path on top of the defaults
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to the given path
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// ApplyEnv loads an optional .env file and fills secrets that the config file left empty
func (c *Config) ApplyEnv(envFiles ...string) {
	if err := godotenv.Load(envFiles...); err != nil && !os.IsNotExist(err) {
		slog.Warn("Could not load .env file", "error", err)
	}

	if c.Analysis.APIKey == "" {
		switch c.Analysis.LLMProvider {
		case ProviderAnthropic:
			c.Analysis.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			c.Analysis.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if c.Email.SMTPPass == "" {
		c.Email.SMTPPass = os.Getenv("REPLYLOOP_SMTP_PASS")
	}
}

// ResolveFiles fills empty file locations with paths under the config and cache dirs
func (c *Config) ResolveFiles() error {
	configDir, err := ConfigDir()
	if err != nil {
		return err
	}
	cacheDir, err := CacheDir()
	if err != nil {
		return err
	}
	c.Files.resolve(configDir, cacheDir)
	return nil
}

func (f *FilesConfig) resolve(configDir, cacheDir string) {
	if f.DataFile == "" {
		f.DataFile = filepath.Join(cacheDir, "data.json")
	}
	if f.ResultsFile == "" {
		f.ResultsFile = filepath.Join(cacheDir, "analysis_results.json")
	}
	if f.SessionFile == "" {
		f.SessionFile = filepath.Join(configDir, "state.json")
	}
	if f.ScreenshotFile == "" {
		f.ScreenshotFile = filepath.Join(cacheDir, "reply_screenshot.png")
	}
	if f.HistoryDB == "" {
		f.HistoryDB = filepath.Join(configDir, "history.db")
	}
}
