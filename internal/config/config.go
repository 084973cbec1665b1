// Package config handles loading and validation of service configuration.
// Supports both development (env vars, optional .env file) and production
// (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"reflect"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/mod/semver"

	"autoparse/internal/model"
)

// Config holds all service configuration.
// Environment determines whether store credentials load from env vars
// (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port" env:"PORT" envDefault:"8080" validate:"required,numeric"`
	Environment string `json:"environment" env:"ENVIRONMENT" envDefault:"development" validate:"oneof=development staging production"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFile     string `json:"log_file" env:"LOG_FILE"`

	// Where generated documents are written
	OutputDir string `json:"output_dir" env:"OUTPUT_DIR" envDefault:"output" validate:"required"`

	// GCP settings (required in production)
	GCPProject  string `json:"gcp_project" env:"GCP_PROJECT"`
	StoreSecret string `json:"store_secret" env:"STORE_SECRET" envDefault:"woocommerce"`

	WooCommerce WooCommerceConfig `json:"woocommerce"`
}

// WooCommerceConfig contains the store connection settings.
// In production, this is loaded from Secret Manager as JSON.
type WooCommerceConfig struct {
	// BaseURL is the REST root including the namespace, e.g.
	// https://shop.example.com/wp-json/wc/v3
	BaseURL        string `json:"base_url" env:"WOOCOMMERCE_BASE_URL" validate:"required,url"`
	ConsumerKey    string `json:"consumer_key" env:"WOOCOMMERCE_CONSUMER_KEY" validate:"required"`
	ConsumerSecret string `json:"consumer_secret" env:"WOOCOMMERCE_CONSUMER_SECRET" validate:"required"`

	// MaxPages bounds order pagination; 0 means unbounded.
	MaxPages int `json:"max_pages" env:"WOOCOMMERCE_MAX_PAGES" envDefault:"0" validate:"gte=0"`

	// TLSFingerprint presents a Chrome TLS handshake to hosts behind a WAF.
	TLSFingerprint bool   `json:"tls_fingerprint" env:"WOOCOMMERCE_TLS_FINGERPRINT" envDefault:"true"`
	UserAgent      string `json:"user_agent" env:"WOOCOMMERCE_USER_AGENT"`
}

// minAPIVersion is the oldest WooCommerce REST namespace exposing order meta_data.
const minAPIVersion = "v2"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by the setting name an operator would change.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → .env + ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading store credentials: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads ENV_FILE (default .env) into the process environment.
// Variables already set win. A missing default file is not an error.
func loadEnvFile() error {
	path, explicit := os.LookupEnv("ENV_FILE")
	if !explicit || path == "" {
		path = ".env"
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil
	}
	return fmt.Errorf("loading env file %s: %w", path, err)
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start from the envDefault values so settings the file omits, booleans
	// included, match what Load would produce.
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Port = withDefault(cfg.Port, "8080")
	cfg.Environment = withDefault(cfg.Environment, "development")
	cfg.LogLevel = withDefault(cfg.LogLevel, "info")
	cfg.OutputDir = withDefault(cfg.OutputDir, "output")
	cfg.StoreSecret = withDefault(cfg.StoreSecret, "woocommerce")

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store credentials from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{store_secret}/versions/latest
// Fields present in the secret override those from the environment.
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.StoreSecret)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.WooCommerce); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// validate checks that all required configuration fields are present.
// A missing or blank required setting is reported as a configuration error.
func (c *Config) validate() error {
	c.WooCommerce.BaseURL = strings.TrimSpace(c.WooCommerce.BaseURL)
	c.WooCommerce.ConsumerKey = strings.TrimSpace(c.WooCommerce.ConsumerKey)
	c.WooCommerce.ConsumerSecret = strings.TrimSpace(c.WooCommerce.ConsumerSecret)

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return fmt.Errorf("validating config: %w", err)
		}
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return model.NewConfigurationError(fe.Field())
		}
		return model.NewValidationError(fe.Field(), fmt.Sprintf("fails %q", fe.ActualTag()))
	}

	return checkAPIVersion(c.WooCommerce.BaseURL)
}

// checkAPIVersion rejects base URLs pointing at a WooCommerce REST namespace
// older than minAPIVersion. URLs without a /wc/ segment are accepted as is.
func checkAPIVersion(baseURL string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return model.NewValidationError("WOOCOMMERCE_BASE_URL", err.Error())
	}

	path := strings.TrimSuffix(u.Path, "/")
	idx := strings.LastIndex(path, "/wc/")
	if idx < 0 {
		return nil
	}

	version := path[idx+len("/wc/"):]
	if !semver.IsValid(version) {
		return model.NewValidationError("WOOCOMMERCE_BASE_URL", fmt.Sprintf("unrecognized API version %q", version))
	}
	if semver.Compare(version, minAPIVersion) < 0 {
		return model.NewValidationError("WOOCOMMERCE_BASE_URL",
			fmt.Sprintf("API %s has no order meta_data, use %s or later", version, minAPIVersion))
	}
	return nil
}
