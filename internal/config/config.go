package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`
	// DryRun plans and logs every change without saving dashboards back.
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	Grafana   GrafanaConfig   `mapstructure:"grafana" yaml:"grafana"`
	Rewrite   RewriteConfig   `mapstructure:"rewrite" yaml:"rewrite"`
	ChangeLog ChangeLogConfig `mapstructure:"changelog" yaml:"changelog"`
}

// GrafanaConfig holds connection details for the Grafana HTTP API. APIKey
// wins over username/password when both are set.
type GrafanaConfig struct {
	URL       string `mapstructure:"url" yaml:"url"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	Username  string `mapstructure:"username" yaml:"username"`
	Password  string `mapstructure:"password" yaml:"password"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout"` // milliseconds
	Retries   int    `mapstructure:"retries" yaml:"retries"`
	BackoffMS int    `mapstructure:"backoff_ms" yaml:"backoff_ms"`
}

// RewriteConfig names the folder to process and the matcher pair to replace.
type RewriteConfig struct {
	Folder   string `mapstructure:"folder" yaml:"folder"`
	OldLabel string `mapstructure:"old_label" yaml:"old_label"`
	OldValue string `mapstructure:"old_value" yaml:"old_value"`
	NewLabel string `mapstructure:"new_label" yaml:"new_label"`
	NewValue string `mapstructure:"new_value" yaml:"new_value"`
}

// ChangeLogConfig controls where the plain-text change report is written.
type ChangeLogConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}
