package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret   string   `mapstructure:"JWT_SECRET"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	// Outbound email (OTP delivery).
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      string `mapstructure:"SMTP_PORT"`
	EmailUser     string `mapstructure:"EMAIL_USER"`
	EmailPassword string `mapstructure:"EMAIL_PASSWORD"`

	// Outbound SMS (OTP delivery). Provider is "itexmo", "twilio" or "".
	SMSProvider      string `mapstructure:"SMS_PROVIDER"`
	ItexmoAPIKey     string `mapstructure:"ITEXMO_API_KEY"`
	ItexmoSenderID   string `mapstructure:"ITEXMO_SENDER_ID"`
	TwilioAccountSID string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioFromNumber string `mapstructure:"TWILIO_FROM_NUMBER"`

	// Lab result uploads. BaseURL is the externally reachable address used
	// to build absolute file links.
	UploadDir string `mapstructure:"UPLOAD_DIR"`
	BaseURL   string `mapstructure:"BASE_URL"`

	// Admin AI assistant.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Fixed-window IP limiters (requests per 15-minute window).
	APIRateMax   int `mapstructure:"API_RATE_MAX"`
	LoginRateMax int `mapstructure:"LOGIN_RATE_MAX"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "5000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("ITEXMO_SENDER_ID", "CLICARE")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("BASE_URL", "http://localhost:5000")
	v.SetDefault("API_RATE_MAX", 200)
	v.SetDefault("LOGIN_RATE_MAX", 50)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("SMTP_HOST")
	v.BindEnv("SMTP_PORT")
	v.BindEnv("EMAIL_USER")
	v.BindEnv("EMAIL_PASSWORD")
	v.BindEnv("SMS_PROVIDER")
	v.BindEnv("ITEXMO_API_KEY")
	v.BindEnv("ITEXMO_SENDER_ID")
	v.BindEnv("TWILIO_ACCOUNT_SID")
	v.BindEnv("TWILIO_AUTH_TOKEN")
	v.BindEnv("TWILIO_FROM_NUMBER")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("BASE_URL")
	v.BindEnv("GEMINI_API_KEY")
	v.BindEnv("API_RATE_MAX")
	v.BindEnv("LOGIN_RATE_MAX")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EmailConfigured reports whether the SMTP channel can deliver OTP mail.
func (c *Config) EmailConfigured() bool {
	return c.EmailUser != "" && c.EmailPassword != ""
}

// SMSConfigured reports whether an SMS provider can deliver OTP texts.
// The iTexMo sample key shipped in vendor docs does not count as configured.
func (c *Config) SMSConfigured() bool {
	switch c.SMSProvider {
	case "itexmo":
		return c.ItexmoAPIKey != "" && c.ItexmoAPIKey != "PR-SAMPL123456_ABCDE"
	case "twilio":
		return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
	}
	return false
}

// Validate checks that the configuration is safe to run. JWT_SECRET must be
// set outside development so tokens cannot be forged with a known default.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q. Refusing to start with an empty signing key", c.Env)
	}
	if c.SMSProvider != "" && c.SMSProvider != "itexmo" && c.SMSProvider != "twilio" {
		return fmt.Errorf("SMS_PROVIDER must be \"itexmo\", \"twilio\" or empty, got %q", c.SMSProvider)
	}
	if c.APIRateMax <= 0 || c.LoginRateMax <= 0 {
		return fmt.Errorf("rate limits must be positive (API_RATE_MAX=%d, LOGIN_RATE_MAX=%d)", c.APIRateMax, c.LoginRateMax)
	}
	return nil
}
