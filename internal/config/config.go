package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	Logging    Logging    `mapstructure:"logging"`
	Database   Database   `mapstructure:"database"`
	Reddit     Reddit     `mapstructure:"reddit"`
	AI         AI         `mapstructure:"ai"`
	Generation Generation `mapstructure:"generation"`
	Server     Server     `mapstructure:"server"`
	Admin      Admin      `mapstructure:"admin"`
}

// App holds general application configuration
type App struct {
	Debug       bool   `mapstructure:"debug"`
	Environment string `mapstructure:"environment"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Database selects the article store.
type Database struct {
	Driver string `mapstructure:"driver"` // postgres or sqlite3
	URL    string `mapstructure:"url"`
	Path   string `mapstructure:"path"`
}

// Reddit holds topic source configuration
type Reddit struct {
	Subreddits     []string `mapstructure:"subreddits"`
	Listings       []string `mapstructure:"listings"`
	ListingLimit   int      `mapstructure:"listing_limit"`
	MinTitleLength int      `mapstructure:"min_title_length"`
	MaxTitleLength int      `mapstructure:"max_title_length"`
	BannedWords    []string `mapstructure:"banned_words"`
	Delay          string   `mapstructure:"delay"`
	CommentLimit   int      `mapstructure:"comment_limit"`
	CommentDepth   int      `mapstructure:"comment_depth"`
	UserAgent      string   `mapstructure:"user_agent"`
	Timeout        string   `mapstructure:"timeout"`
	BaseURL        string   `mapstructure:"base_url"`
	OAuthURL       string   `mapstructure:"oauth_url"`
	TokenURL       string   `mapstructure:"token_url"`
	AuthMode       string   `mapstructure:"auth_mode"` // auto, public, oauth
	ClientID       string   `mapstructure:"client_id"`
	ClientSecret   string   `mapstructure:"client_secret"`
	Username       string   `mapstructure:"username"`
	Password       string   `mapstructure:"password"`
}

// HasCredentials reports whether a password grant can be attempted.
func (r Reddit) HasCredentials() bool {
	return r.ClientID != "" && r.ClientSecret != "" && r.Username != "" && r.Password != ""
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	TextModel   string  `mapstructure:"text_model"`
	ImageModel  string  `mapstructure:"image_model"`
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// Generation holds pipeline policy switches
type Generation struct {
	AcceptFallback bool  `mapstructure:"accept_fallback"`
	Dedup          Dedup `mapstructure:"dedup"`
}

// Dedup toggles each duplicate predicate independently.
type Dedup struct {
	RawTitle       bool `mapstructure:"raw_title"`
	GeneratedTitle bool `mapstructure:"generated_title"`
	SourceURL      bool `mapstructure:"source_url"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	ReadTimeout     string   `mapstructure:"read_timeout"`
	WriteTimeout    string   `mapstructure:"write_timeout"`
	IdleTimeout     string   `mapstructure:"idle_timeout"`
	RequestTimeout  string   `mapstructure:"request_timeout"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
	CacheTTL        string   `mapstructure:"cache_ttl"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	SiteURL         string   `mapstructure:"site_url"`
	SiteTitle       string   `mapstructure:"site_title"`
	SecureCookies   bool     `mapstructure:"secure_cookies"`
}

// Addr returns host:port for net/http.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Admin holds the shared admin credential and session signing key.
type Admin struct {
	Password   string `mapstructure:"password"`
	JWTSecret  string `mapstructure:"jwt_secret"`
	SessionTTL string `mapstructure:"session_ttl"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".blogsmith")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Reset clears the cached configuration and viper state. Used by tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.environment", "development")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("database.path", "blogsmith.db")

	viper.SetDefault("reddit.subreddits", []string{"technology", "artificial", "cybersecurity", "saas"})
	viper.SetDefault("reddit.listings", []string{"hot", "top?t=day", "new"})
	viper.SetDefault("reddit.listing_limit", 25)
	viper.SetDefault("reddit.min_title_length", 15)
	viper.SetDefault("reddit.max_title_length", 300)
	viper.SetDefault("reddit.banned_words", []string{"removed", "deleted"})
	viper.SetDefault("reddit.delay", "2s")
	viper.SetDefault("reddit.comment_limit", 100)
	viper.SetDefault("reddit.comment_depth", 10)
	viper.SetDefault("reddit.user_agent", "blogsmith:v2.0 (by /u/blogsmith)")
	viper.SetDefault("reddit.timeout", "15s")
	viper.SetDefault("reddit.base_url", "https://www.reddit.com")
	viper.SetDefault("reddit.oauth_url", "https://oauth.reddit.com")
	viper.SetDefault("reddit.token_url", "https://www.reddit.com/api/v1/access_token")
	viper.SetDefault("reddit.auth_mode", "auto")

	viper.SetDefault("ai.gemini.text_model", "gemini-2.5-flash")
	viper.SetDefault("ai.gemini.image_model", "gemini-2.0-flash-preview-image-generation")
	viper.SetDefault("ai.gemini.timeout", "90s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	viper.SetDefault("ai.gemini.temperature", 0.7)

	viper.SetDefault("generation.accept_fallback", false)
	viper.SetDefault("generation.dedup.raw_title", true)
	viper.SetDefault("generation.dedup.generated_title", true)
	viper.SetDefault("generation.dedup.source_url", true)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "300s")
	viper.SetDefault("server.idle_timeout", "60s")
	viper.SetDefault("server.request_timeout", "270s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cache_ttl", "10s")
	viper.SetDefault("server.site_url", "http://localhost:8080")
	viper.SetDefault("server.site_title", "Blogsmith")
	viper.SetDefault("server.secure_cookies", false)

	viper.SetDefault("admin.session_ttl", "24h")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("database.driver", []string{"DATABASE_DRIVER"})
	bindEnvKeys("database.url", []string{
		"DATABASE_URL",
		"POSTGRES_URL",
	})

	bindEnvKeys("reddit.client_id", []string{"REDDIT_CLIENT_ID"})
	bindEnvKeys("reddit.client_secret", []string{"REDDIT_CLIENT_SECRET"})
	bindEnvKeys("reddit.username", []string{"REDDIT_USERNAME"})
	bindEnvKeys("reddit.password", []string{"REDDIT_PASSWORD"})
	bindEnvKeys("reddit.user_agent", []string{"REDDIT_USER_AGENT"})

	bindEnvKeys("admin.password", []string{"ADMIN_PASSWORD"})
	bindEnvKeys("admin.jwt_secret", []string{"JWT_SECRET"})

	bindEnvKeys("server.port", []string{"PORT"})
	bindEnvKeys("server.site_url", []string{
		"SITE_URL",
		"NEXT_PUBLIC_SITE_URL",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"BLOGSMITH_DEBUG",
	})
	bindEnvKeys("app.environment", []string{"APP_ENV"})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.Database.Path != "" {
		config.Database.Path = expandPath(config.Database.Path)
	}
	if config.Database.Driver == "" {
		config.Database.Driver = "sqlite3"
		if config.Database.URL != "" {
			config.Database.Driver = "postgres"
		}
	}
	config.Server.SiteURL = strings.TrimRight(config.Server.SiteURL, "/")
	if config.App.Environment == "production" {
		config.Server.SecureCookies = true
	}

	durations := map[string]string{
		"reddit.delay":            config.Reddit.Delay,
		"reddit.timeout":          config.Reddit.Timeout,
		"ai.gemini.timeout":       config.AI.Gemini.Timeout,
		"server.read_timeout":     config.Server.ReadTimeout,
		"server.write_timeout":    config.Server.WriteTimeout,
		"server.idle_timeout":     config.Server.IdleTimeout,
		"server.request_timeout":  config.Server.RequestTimeout,
		"server.shutdown_timeout": config.Server.ShutdownTimeout,
		"server.cache_ttl":        config.Server.CacheTTL,
		"admin.session_ttl":       config.Admin.SessionTTL,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig checks values that would otherwise fail deep inside a run.
// Secrets are checked by the commands that need them.
func validateConfig(config *Config) error {
	var errors []string

	switch config.Database.Driver {
	case "postgres":
		if config.Database.URL == "" {
			errors = append(errors, "database.url is required for the postgres driver. Set DATABASE_URL")
		}
	case "sqlite3":
		if config.Database.Path == "" {
			errors = append(errors, "database.path is required for the sqlite3 driver")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown database driver: %s. Supported: postgres, sqlite3", config.Database.Driver))
	}

	switch config.Reddit.AuthMode {
	case "auto", "public":
	case "oauth":
		if !config.Reddit.HasCredentials() {
			errors = append(errors, "reddit.auth_mode=oauth requires REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and REDDIT_PASSWORD")
		}
	default:
		errors = append(errors, fmt.Sprintf("Unknown reddit auth mode: %s. Supported: auto, public, oauth", config.Reddit.AuthMode))
	}

	if len(config.Reddit.Subreddits) == 0 {
		errors = append(errors, "reddit.subreddits must list at least one community")
	}
	if len(config.Reddit.Listings) == 0 {
		errors = append(errors, "reddit.listings must list at least one endpoint")
	}
	if config.Reddit.MinTitleLength >= config.Reddit.MaxTitleLength {
		errors = append(errors, "reddit.min_title_length must be below reddit.max_title_length")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateForGeneration reports what is missing before a generation run.
func (c *Config) ValidateForGeneration() error {
	if c.AI.Gemini.APIKey == "" {
		return fmt.Errorf("gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file")
	}
	return nil
}

// ValidateForServer reports what is missing before serving the admin API.
func (c *Config) ValidateForServer() error {
	var errors []string
	if c.Admin.Password == "" {
		errors = append(errors, "admin password is required. Set ADMIN_PASSWORD")
	}
	if c.Admin.JWTSecret == "" {
		errors = append(errors, "session signing key is required. Set JWT_SECRET")
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Duration parses a validated duration string, falling back when empty.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
