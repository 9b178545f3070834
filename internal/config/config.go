// Package config loads configuration for the relay binaries and wgfctl.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the merged file and environment configuration.
type Config struct {
	WGF     WGF     `toml:"wgf"`
	AWS     AWS     `toml:"aws"`
	Relay   Relay   `toml:"relay"`
	Log     Log     `toml:"log"`
	Metrics Metrics `toml:"metrics"`
}

// WGF holds the merchant credentials.
type WGF struct {
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	MerchantID string `toml:"merchant_id"`
	BaseURL    string `toml:"base_url"`
	Prod       bool   `toml:"prod"`
}

type AWS struct {
	Region           string `toml:"region"`
	EndpointOverride string `toml:"endpoint_override"`
}

// Relay configures the shipping-update relay.
type Relay struct {
	IdempotencyTable string `toml:"idempotency_table"`
	DispatchTable    string `toml:"dispatch_table"`
	QueueURL         string `toml:"queue_url"`
	Addr             string `toml:"addr"`
	RunLocal         bool   `toml:"run_local"`
	// TTL is a duration string ("48h").
	TTL string `toml:"ttl"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type Metrics struct {
	Namespace string `toml:"namespace"`
}

// Default returns the configuration used when neither file nor environment set a value.
func Default() Config {
	return Config{
		AWS:     AWS{Region: "us-east-1"},
		Relay:   Relay{Addr: ":8080", TTL: "48h"},
		Log:     Log{Level: "info", Format: "json"},
		Metrics: Metrics{Namespace: "WGFRelay"},
	}
}

// Load reads the TOML file at path when path is not empty, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"WGF_USERNAME":          &c.WGF.Username,
		"WGF_PASSWORD":          &c.WGF.Password,
		"WGF_MERCHANT_ID":       &c.WGF.MerchantID,
		"WGF_BASE_URL":          &c.WGF.BaseURL,
		"AWS_REGION":            &c.AWS.Region,
		"AWS_ENDPOINT_OVERRIDE": &c.AWS.EndpointOverride,
		"IDEMPOTENCY_TABLE":     &c.Relay.IdempotencyTable,
		"DISPATCH_TABLE":        &c.Relay.DispatchTable,
		"SHIPPING_QUEUE_URL":    &c.Relay.QueueURL,
		"RELAY_ADDR":            &c.Relay.Addr,
		"IDEMPOTENCY_TTL":       &c.Relay.TTL,
		"LOG_LEVEL":             &c.Log.Level,
		"LOG_FORMAT":            &c.Log.Format,
		"METRICS_NAMESPACE":     &c.Metrics.Namespace,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	bools := map[string]*bool{
		"WGF_PROD":  &c.WGF.Prod,
		"RUN_LOCAL": &c.Relay.RunLocal,
	}
	for key, dst := range bools {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("parse %s: %w", key, err)
		}
		*dst = b
	}
	return nil
}

// TTLWindow parses Relay.TTL.
func (c Config) TTLWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Relay.TTL)
	if err != nil {
		return 0, fmt.Errorf("parse relay ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("relay ttl must be positive, got %s", d)
	}
	return d, nil
}

// ValidateRelay checks the settings both relay binaries need.
func (c Config) ValidateRelay() error {
	if strings.TrimSpace(c.Relay.IdempotencyTable) == "" {
		return fmt.Errorf("relay config missing idempotency_table")
	}
	if strings.TrimSpace(c.Relay.DispatchTable) == "" {
		return fmt.Errorf("relay config missing dispatch_table")
	}
	if strings.TrimSpace(c.Relay.QueueURL) == "" {
		return fmt.Errorf("relay config missing queue_url")
	}
	if _, err := c.TTLWindow(); err != nil {
		return err
	}
	return nil
}

// Credentials returns the raw credential map for entity.NewCredentials.
func (c Config) Credentials() map[string]any {
	raw := map[string]any{
		"username":    c.WGF.Username,
		"password":    c.WGF.Password,
		"merchant_id": c.WGF.MerchantID,
		"is_prod":     c.WGF.Prod,
	}
	if c.WGF.BaseURL != "" {
		raw["base_url"] = c.WGF.BaseURL
	}
	return raw
}

// Logger builds a slog logger writing to w with the configured level and format.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
