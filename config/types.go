package config

// Config represents the entire YAML configuration file
type Config struct {
	App      AppConfig      `yaml:"app"`
	Features FeaturesConfig `yaml:"features"`
	Sinks    SinksConfig    `yaml:"sinks"`
	Data     DataConfig     `yaml:"data"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name    string `yaml:"name"`
	Host    string `yaml:"host"` // Host to bind to (default: 127.0.0.1)
	Port    int    `yaml:"port"`
	Version string `yaml:"version"`

	// DocumentRoot resolves relative paths for file access and inclusion (default: working directory)
	DocumentRoot string `yaml:"document_root,omitempty"`
}

// FeaturesConfig toggles optional handler groups
type FeaturesConfig struct {
	XML bool `yaml:"xml"`
}

// SinksConfig holds settings for the side-effect sinks
type SinksConfig struct {
	Shell         string `yaml:"shell"`
	LookupCommand string `yaml:"lookup_command"`
	UserAgent     string `yaml:"user_agent"`
}

// DataConfig holds seed data settings
type DataConfig struct {
	UsersFile string `yaml:"users_file,omitempty"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	RequestLog string `yaml:"request_log,omitempty"`
}

// MetricsConfig holds the Prometheus listener settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// Defaults
const (
	DefaultName          = "TinyFlaw"
	DefaultHost          = "127.0.0.1"
	DefaultPort          = 65412
	DefaultVersion       = "0.2b"
	DefaultShell         = "/bin/sh"
	DefaultLookupCommand = "nslookup"
	DefaultMetricsAddr   = "127.0.0.1:9412"
)

// Default returns a configuration with every value set
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:    DefaultName,
			Host:    DefaultHost,
			Port:    DefaultPort,
			Version: DefaultVersion,
		},
		Features: FeaturesConfig{XML: true},
		Sinks: SinksConfig{
			Shell:         DefaultShell,
			LookupCommand: DefaultLookupCommand,
			UserAgent:     DefaultName + "/" + DefaultVersion,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Address: DefaultMetricsAddr,
		},
	}
}
