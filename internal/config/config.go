package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"necromancer/internal/core"
)

// Config holds all application configuration
type Config struct {
	User           User           `mapstructure:"user"`
	AI             AI             `mapstructure:"ai"`
	Classification Classification `mapstructure:"classification"`
	Summary        Summary        `mapstructure:"summary"`
	Google         Google         `mapstructure:"google"`
	Sources        Sources        `mapstructure:"sources"`
	Portfolio      Portfolio      `mapstructure:"portfolio"`
	Features       Features       `mapstructure:"features"`
	Server         Server         `mapstructure:"server"`
	Logging        Logging        `mapstructure:"logging"`
}

// User holds the portfolio owner's details
type User struct {
	Name  string `mapstructure:"name"`
	Email string `mapstructure:"email" validate:"omitempty,email"`
	Title string `mapstructure:"title"`
	Bio   string `mapstructure:"bio"`
}

// AI holds Gemini configuration
type AI struct {
	APIKey       string        `mapstructure:"api_key"`
	Model        string        `mapstructure:"model" validate:"required"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gt=0"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
	Temperature  float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int32         `mapstructure:"max_tokens" validate:"gt=0"`
}

// Classification holds classifier tier settings
type Classification struct {
	AIEnabled           bool    `mapstructure:"ai_enabled"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" validate:"gte=0,lte=1"`
	RuleFloor           float64 `mapstructure:"rule_floor" validate:"gte=0,ltfield=RuleCeiling"`
	RuleCeiling         float64 `mapstructure:"rule_ceiling" validate:"gt=0,lte=1"`
}

// Summary holds summary tier settings
type Summary struct {
	AIEnabled bool   `mapstructure:"ai_enabled"`
	Tone      string `mapstructure:"tone" validate:"oneof=professional casual enthusiastic"`
	Length    string `mapstructure:"length" validate:"oneof=short medium long"`
	MinChars  int    `mapstructure:"min_chars" validate:"gte=1"`
}

// Google holds OAuth files shared by the Gmail and Drive sources
type Google struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	TokenFile       string `mapstructure:"token_file"`
}

// Sources holds per-source scraping configuration
type Sources struct {
	Manual      ManualSource     `mapstructure:"manual"`
	Email       EmailSource      `mapstructure:"email"`
	Drive       DriveSource      `mapstructure:"drive"`
	Slack       SlackSource      `mapstructure:"slack"`
	Figma       FigmaSource      `mapstructure:"figma"`
	Screenshots ScreenshotSource `mapstructure:"screenshots"`
}

// ManualSource reads projects from a YAML or JSON file
type ManualSource struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// EmailSource holds Gmail settings
type EmailSource struct {
	Enabled      bool `mapstructure:"enabled"`
	MaxEmails    int  `mapstructure:"max_emails" validate:"gte=0"`
	LookbackDays int  `mapstructure:"lookback_days" validate:"gte=0"`
}

// DriveSource holds Google Drive settings
type DriveSource struct {
	Enabled  bool `mapstructure:"enabled"`
	MaxFiles int  `mapstructure:"max_files" validate:"gte=0"`
}

// SlackSource holds Slack settings
type SlackSource struct {
	Enabled     bool   `mapstructure:"enabled"`
	Token       string `mapstructure:"token"`
	UserID      string `mapstructure:"user_id"`
	MaxMessages int    `mapstructure:"max_messages" validate:"gte=0"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
}

// FigmaSource holds Figma settings
type FigmaSource struct {
	Enabled     bool   `mapstructure:"enabled"`
	AccessToken string `mapstructure:"access_token"`
	TeamID      string `mapstructure:"team_id"`
	MaxFiles    int    `mapstructure:"max_files" validate:"gte=0"`
	BaseURL     string `mapstructure:"base_url" validate:"omitempty,url"`
}

// ScreenshotSource holds local screenshot folder settings
type ScreenshotSource struct {
	Enabled    bool   `mapstructure:"enabled"`
	FolderPath string `mapstructure:"folder_path"`
	MaxFiles   int    `mapstructure:"max_files" validate:"gte=0"`
}

// Portfolio holds output and presentation settings
type Portfolio struct {
	OutputDir    string `mapstructure:"output_dir" validate:"required"`
	Theme        string `mapstructure:"theme" validate:"oneof=modern minimal"`
	ColorScheme  string `mapstructure:"color_scheme" validate:"oneof=blue green purple"`
	MaxProjects  int    `mapstructure:"max_projects" validate:"gte=0"`
	ItemsPerPage int    `mapstructure:"items_per_page" validate:"gte=1"`
}

// Features holds paid-tier switches
type Features struct {
	UnlimitedProjects bool   `mapstructure:"unlimited_projects"`
	RemoveWatermark   bool   `mapstructure:"remove_watermark"`
	CustomBranding    bool   `mapstructure:"custom_branding"`
	CustomDomain      string `mapstructure:"custom_domain"`
}

// Server holds HTTP API configuration
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	StorageDir      string        `mapstructure:"storage_dir" validate:"required"`
	Retention       time.Duration `mapstructure:"retention" validate:"gte=0"` // 0 keeps portfolios forever
	CORS            CORS          `mapstructure:"cors"`
}

// CORS holds cross-origin settings for the API
type CORS struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Logging holds logging configuration
type Logging struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Themes lists the available site themes.
func Themes() []string { return []string{"modern", "minimal"} }

// ColorSchemes lists the available color schemes.
func ColorSchemes() []string { return []string{"blue", "green", "purple"} }

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := read(configFile)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

func read(configFile string) (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
		}
	}

	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
		v.SetConfigName("necromancer")
		v.SetConfigType("yaml")
	}

	setDefaults(v)
	bindEnvironmentVariables(v)

	v.SetEnvPrefix("NECROMANCER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, core.NewConfigurationError("error reading config file", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, core.NewConfigurationError("error unmarshaling config", err)
	}

	postProcessConfig(config)

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("user.name", "")
	v.SetDefault("user.email", "")
	v.SetDefault("user.title", "")
	v.SetDefault("user.bio", "")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-1.5-flash")
	v.SetDefault("ai.timeout", "10s")
	v.SetDefault("ai.probe_timeout", "5s")
	v.SetDefault("ai.temperature", 0.3)
	v.SetDefault("ai.max_tokens", 300)

	v.SetDefault("classification.ai_enabled", true)
	v.SetDefault("classification.confidence_threshold", 0.7)
	v.SetDefault("classification.rule_floor", 0.3)
	v.SetDefault("classification.rule_ceiling", 0.9)

	v.SetDefault("summary.ai_enabled", true)
	v.SetDefault("summary.tone", "professional")
	v.SetDefault("summary.length", "medium")
	v.SetDefault("summary.min_chars", 50)

	v.SetDefault("google.credentials_file", "credentials.json")
	v.SetDefault("google.token_file", "token.json")

	v.SetDefault("sources.manual.enabled", true)
	v.SetDefault("sources.manual.path", "projects.yaml")
	v.SetDefault("sources.email.enabled", false)
	v.SetDefault("sources.email.max_emails", 100)
	v.SetDefault("sources.email.lookback_days", 365)
	v.SetDefault("sources.drive.enabled", false)
	v.SetDefault("sources.drive.max_files", 100)
	v.SetDefault("sources.slack.enabled", false)
	v.SetDefault("sources.slack.token", "")
	v.SetDefault("sources.slack.user_id", "")
	v.SetDefault("sources.slack.max_messages", 100)
	v.SetDefault("sources.slack.base_url", "https://slack.com/api")
	v.SetDefault("sources.figma.enabled", false)
	v.SetDefault("sources.figma.access_token", "")
	v.SetDefault("sources.figma.team_id", "")
	v.SetDefault("sources.figma.max_files", 50)
	v.SetDefault("sources.figma.base_url", "https://api.figma.com/v1")
	v.SetDefault("sources.screenshots.enabled", false)
	v.SetDefault("sources.screenshots.folder_path", "")
	v.SetDefault("sources.screenshots.max_files", 50)

	v.SetDefault("portfolio.output_dir", "./generated_portfolios")
	v.SetDefault("portfolio.theme", "modern")
	v.SetDefault("portfolio.color_scheme", "blue")
	v.SetDefault("portfolio.max_projects", 20)
	v.SetDefault("portfolio.items_per_page", 12)

	v.SetDefault("features.unlimited_projects", false)
	v.SetDefault("features.remove_watermark", false)
	v.SetDefault("features.custom_branding", false)
	v.SetDefault("features.custom_domain", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.storage_dir", "./api_portfolios")
	v.SetDefault("server.retention", "0s")
	v.SetDefault("server.cors.enabled", true)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables(v *viper.Viper) {
	bindEnvKeys(v, "ai.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys(v, "sources.slack.token", []string{
		"SLACK_TOKEN",
		"SLACK_USER_TOKEN",
	})

	bindEnvKeys(v, "sources.figma.access_token", []string{
		"FIGMA_ACCESS_TOKEN",
		"FIGMA_TOKEN",
	})

	bindEnvKeys(v, "google.credentials_file", []string{
		"GOOGLE_CREDENTIALS_FILE",
		"GOOGLE_APPLICATION_CREDENTIALS",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(v *viper.Viper, viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			v.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig expands paths and normalizes enum-like strings
func postProcessConfig(config *Config) {
	config.Portfolio.OutputDir = expandPath(config.Portfolio.OutputDir)
	config.Server.StorageDir = expandPath(config.Server.StorageDir)
	config.Sources.Manual.Path = expandPath(config.Sources.Manual.Path)
	config.Sources.Screenshots.FolderPath = expandPath(config.Sources.Screenshots.FolderPath)
	config.Google.CredentialsFile = expandPath(config.Google.CredentialsFile)
	config.Google.TokenFile = expandPath(config.Google.TokenFile)

	config.Summary.Tone = strings.ToLower(strings.TrimSpace(config.Summary.Tone))
	config.Summary.Length = strings.ToLower(strings.TrimSpace(config.Summary.Length))
	config.Portfolio.Theme = strings.ToLower(strings.TrimSpace(config.Portfolio.Theme))
	config.Portfolio.ColorScheme = strings.ToLower(strings.TrimSpace(config.Portfolio.ColorScheme))
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

var validate = validator.New()

// validateConfig checks struct constraints and reports every violation at once
func validateConfig(config *Config) error {
	err := validate.Struct(config)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.NewConfigurationError("invalid configuration", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeFieldError(fe))
	}
	return core.NewConfigurationError("configuration errors:\n- "+strings.Join(problems, "\n- "), nil)
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s is required", field)
	default:
		return fmt.Sprintf("%s failed %s=%s (value %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
}

// HasAICredentials reports whether an API key that is not a placeholder is set.
func (c *Config) HasAICredentials() bool {
	return isValidAPIKey(c.AI.APIKey)
}

// ProjectCap returns the free-tier cap, or zero when unlimited.
func (c *Config) ProjectCap() int {
	if c.Features.UnlimitedProjects {
		return 0
	}
	return c.Portfolio.MaxProjects
}

// ShowWatermark reports whether generated sites carry the watermark.
func (c *Config) ShowWatermark() bool {
	return !c.Features.RemoveWatermark
}

// Owner returns the configured owner.
func (c *Config) Owner() core.Owner {
	return core.Owner{Name: c.User.Name, Email: c.User.Email, Title: c.User.Title, Bio: c.User.Bio}
}

// PresentationOptions returns the generator options implied by the config.
func (c *Config) PresentationOptions() core.PresentationOptions {
	return core.PresentationOptions{
		Theme:          c.Portfolio.Theme,
		ColorScheme:    c.Portfolio.ColorScheme,
		ShowWatermark:  c.ShowWatermark(),
		MaxProjects:    c.ProjectCap(),
		CustomDomain:   c.Features.CustomDomain,
		CustomBranding: c.Features.CustomBranding,
	}
}

// isValidAPIKey checks if an API key is valid (not empty and not a placeholder)
func isValidAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return false
	}

	placeholders := []string{
		"your-api-key", "your-gemini-key", "your-gemini-api-key",
		"YOUR_API_KEY", "PLACEHOLDER", "TODO", "CHANGE_ME",
	}
	for _, placeholder := range placeholders {
		if apiKey == placeholder {
			return false
		}
	}
	return true
}
