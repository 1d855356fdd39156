package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider identifiers known to the service
const (
	ProviderLogalty = "logalty"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Esign    EsignConfig    `mapstructure:"esign"`
	Logalty  LogaltyConfig  `mapstructure:"logalty"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Document DocumentConfig `mapstructure:"document"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Port    int    `mapstructure:"port"`
	Env     string `mapstructure:"env"`
	BaseURL string `mapstructure:"base_url"`
}

// EsignConfig selects the active signature provider
type EsignConfig struct {
	Provider string `mapstructure:"provider"`
}

// LogaltyConfig holds the Logalty TSP connection settings
type LogaltyConfig struct {
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret"`
	BaseURL        string        `mapstructure:"base_url"`
	SandboxBaseURL string        `mapstructure:"sandbox_base_url"`
	SandboxMode    bool          `mapstructure:"sandbox_mode"`
	APIVersion     string        `mapstructure:"api_version"`
	Timeout        time.Duration `mapstructure:"timeout"`

	// MaxRetries is the number of additional attempts after the first,
	// clamped to [0, 10].
	MaxRetries int `mapstructure:"max_retries"`

	// TokenExpiration is the fallback token lifetime in seconds used when
	// the token endpoint omits expires_in, clamped to [300, 86400].
	TokenExpiration int `mapstructure:"token_expiration"`

	DefaultEmailSubject  string `mapstructure:"default_email_subject"`
	DefaultEmailMessage  string `mapstructure:"default_email_message"`
	DefaultSignatureType string `mapstructure:"default_signature_type"`

	EnableBiometricSignature  bool `mapstructure:"enable_biometric_signature"`
	EnableSmsVerification     bool `mapstructure:"enable_sms_verification"`
	EnableVideoIdentification bool `mapstructure:"enable_video_identification"`
}

// Endpoint returns the API base URL for the configured environment
func (l *LogaltyConfig) Endpoint() string {
	if l.SandboxMode {
		return l.SandboxBaseURL
	}
	return l.BaseURL
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DocumentConfig struct {
	BasePath       string `mapstructure:"base_path"`       // Base path for documents
	ReadyFolder    string `mapstructure:"ready_folder"`    // Folder for documents ready to send
	ProgressFolder string `mapstructure:"progress_folder"` // Folder for documents out for signature
	FinishFolder   string `mapstructure:"finish_folder"`   // Folder for completed documents
	FileExtension  string `mapstructure:"file_extension"`  // File extension (default: .pdf)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func NewConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Enable environment variable override
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// An explicit zero is a valid retry budget, so the default lives here
	// rather than in applyDefaults.
	viper.SetDefault("logalty.max_retries", 3)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Esign.Provider == "" {
		c.Esign.Provider = ProviderLogalty
	}
	if c.Logalty.BaseURL == "" {
		c.Logalty.BaseURL = "https://api.logalty.com"
	}
	if c.Logalty.SandboxBaseURL == "" {
		c.Logalty.SandboxBaseURL = "https://api-sandbox.logalty.com"
	}
	if c.Logalty.APIVersion == "" {
		c.Logalty.APIVersion = "v1"
	}
	if c.Logalty.Timeout == 0 {
		c.Logalty.Timeout = 60
	}
	// Convert timeout to duration
	c.Logalty.Timeout = c.Logalty.Timeout * time.Second

	if c.Logalty.MaxRetries < 0 {
		c.Logalty.MaxRetries = 0
	}
	if c.Logalty.MaxRetries > 10 {
		c.Logalty.MaxRetries = 10
	}

	if c.Logalty.TokenExpiration == 0 {
		c.Logalty.TokenExpiration = 3600
	}
	if c.Logalty.TokenExpiration < 300 {
		c.Logalty.TokenExpiration = 300
	}
	if c.Logalty.TokenExpiration > 86400 {
		c.Logalty.TokenExpiration = 86400
	}

	if c.Logalty.DefaultEmailSubject == "" {
		c.Logalty.DefaultEmailSubject = "Firma requerida / Signature required"
	}
	if c.Logalty.DefaultEmailMessage == "" {
		c.Logalty.DefaultEmailMessage = "Por favor, revise y firme el documento adjunto / Please review and sign the attached document."
	}
	if c.Logalty.DefaultSignatureType == "" {
		c.Logalty.DefaultSignatureType = "ADVANCED"
	}

	if c.Document.FileExtension == "" {
		c.Document.FileExtension = ".pdf"
	}
}

func (c *Config) validate() error {
	if c.Logalty.ClientID == "" {
		return fmt.Errorf("logalty client_id is required")
	}
	if c.Logalty.ClientSecret == "" {
		return fmt.Errorf("logalty client_secret is required")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
