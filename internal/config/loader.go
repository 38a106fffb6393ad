package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagBindings maps CLI flag names to config keys. Flags override both the
// config file and environment variables.
var flagBindings = map[string]string{
	"grafana-url": "grafana.url",
	"api-key":     "grafana.api_key",
	"username":    "grafana.username",
	"password":    "grafana.password",
	"folder":      "rewrite.folder",
	"old-label":   "rewrite.old_label",
	"old-value":   "rewrite.old_value",
	"new-label":   "rewrite.new_label",
	"new-value":   "rewrite.new_value",
	"log-file":    "changelog.path",
	"dry-run":     "dry_run",
	"log-level":   "log_level",
}

// Load loads configuration with priority order:
// 1. Command-line flags
// 2. Environment variables
// 3. Configuration file (config.yaml)
// 4. Default values
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path := os.Getenv("GRAFANA_RELABEL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/grafana-relabel/")
		v.AddConfigPath("./configs/")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GRAFANA_RELABEL")

	setDefaults(v)

	// Read configuration file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	overrideWithEnvVars(v)

	// Changed flags are applied with Set so they outrank the short-form
	// env overrides above; BindPFlag would sit below them.
	if flags != nil {
		for name, key := range flagBindings {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if f.Value.Type() == "bool" {
				b, err := flags.GetBool(name)
				if err != nil {
					return nil, fmt.Errorf("read flag %s: %w", name, err)
				}
				v.Set(key, b)
				continue
			}
			v.Set(key, f.Value.String())
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("dry_run", false)

	v.SetDefault("grafana.url", "http://localhost:3000")
	v.SetDefault("grafana.timeout", 20000)
	v.SetDefault("grafana.retries", 3)
	v.SetDefault("grafana.backoff_ms", 1000)

	v.SetDefault("changelog.path", "changes_log.txt")
}

// overrideWithEnvVars handles the short-form environment variables most
// deployments already export, on top of the GRAFANA_RELABEL_* forms viper
// picks up automatically.
func overrideWithEnvVars(v *viper.Viper) {
	if grafanaURL := os.Getenv("GRAFANA_URL"); grafanaURL != "" {
		v.Set("grafana.url", grafanaURL)
	}
	if apiKey := os.Getenv("GRAFANA_API_KEY"); apiKey != "" {
		v.Set("grafana.api_key", apiKey)
	}
	if username := os.Getenv("GRAFANA_USERNAME"); username != "" {
		v.Set("grafana.username", username)
	}
	if password := os.Getenv("GRAFANA_PASSWORD"); password != "" {
		v.Set("grafana.password", password)
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}
}

func validateConfig(config *Config) error {
	if config.Grafana.URL == "" {
		return fmt.Errorf("grafana URL is required")
	}
	if config.Rewrite.Folder == "" {
		return fmt.Errorf("rewrite folder is required")
	}
	if config.Rewrite.OldLabel == "" || config.Rewrite.OldValue == "" {
		return fmt.Errorf("old label and old value are required")
	}
	if config.Rewrite.NewLabel == "" || config.Rewrite.NewValue == "" {
		return fmt.Errorf("new label and new value are required")
	}

	if config.Grafana.Timeout < 1 {
		return fmt.Errorf("grafana timeout must be at least 1ms")
	}
	if config.Grafana.Retries < 1 {
		return fmt.Errorf("grafana retries must be at least 1")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}
	return nil
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
