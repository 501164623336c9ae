package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ludo-technologies/seqgate/domain"
	"github.com/ludo-technologies/seqgate/internal/constants"
)

// Default tool settings
const (
	// DefaultOutputFormat is used when neither flags nor config choose one
	DefaultOutputFormat = "json"

	// DefaultMaxGoroutines bounds the number of runs evaluated at once in batch mode
	DefaultMaxGoroutines = 4

	// DefaultTimeoutSeconds bounds a whole batch
	DefaultTimeoutSeconds = 600

	// DefaultServerPort is the port `seqgate serve` listens on
	DefaultServerPort = 9999

	// DefaultMaxConcurrentRequests bounds the evaluations running in the server
	DefaultMaxConcurrentRequests = 8
)

// Config represents the tool settings. The QC rules themselves live in a
// separate file, see QCConfig.
type Config struct {
	// QC holds rule selection settings
	QC QCSettings `json:"qc" mapstructure:"qc" yaml:"qc"`

	// Output holds output formatting configuration
	Output OutputConfig `json:"output" mapstructure:"output" yaml:"output"`

	// Performance holds concurrency settings for batch mode
	Performance PerformanceConfig `json:"performance" mapstructure:"performance" yaml:"performance"`

	// Batch holds runfolder discovery settings
	Batch BatchConfig `json:"batch" mapstructure:"batch" yaml:"batch"`

	// Server holds settings of `seqgate serve`
	Server ServerConfig `json:"server" mapstructure:"server" yaml:"server"`
}

// QCSettings selects and tweaks the QC rule set
type QCSettings struct {
	// ConfigPath is the QC rule file; empty means the embedded defaults
	ConfigPath string `json:"config_path" mapstructure:"config_path" yaml:"config_path"`

	// UseClosestReadLength falls back to the nearest read-length bucket
	UseClosestReadLength bool `json:"use_closest_read_length" mapstructure:"use_closest_read_length" yaml:"use_closest_read_length"`

	// DowngradeErrorsFor lists checkers whose errors are reported as warnings
	DowngradeErrorsFor []string `json:"downgrade_errors_for" mapstructure:"downgrade_errors_for" yaml:"downgrade_errors_for"`

	// View overrides the view chosen by the rule set
	View string `json:"view" mapstructure:"view" yaml:"view"`
}

// OutputConfig holds configuration for output formatting
type OutputConfig struct {
	// Format specifies the output format: json, yaml, text, html
	Format string `json:"format" mapstructure:"format" yaml:"format"`

	// Color enables severity colouring in text output
	Color bool `json:"color" mapstructure:"color" yaml:"color"`
}

// PerformanceConfig holds concurrency settings
type PerformanceConfig struct {
	MaxGoroutines  int `json:"max_goroutines" mapstructure:"max_goroutines" yaml:"max_goroutines"`
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// BatchConfig holds runfolder discovery settings
type BatchConfig struct {
	// DataFileNames are the QC data bundle names that mark a runfolder
	DataFileNames []string `json:"data_file_names" mapstructure:"data_file_names" yaml:"data_file_names"`

	// IgnorePatterns are gitignore style patterns of paths to skip
	IgnorePatterns []string `json:"ignore_patterns" mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
}

// ServerConfig holds settings of the HTTP front-end
type ServerConfig struct {
	Port int `json:"port" mapstructure:"port" yaml:"port"`

	// MonitorPath is the directory runfolders are looked up in
	MonitorPath string `json:"monitor_path" mapstructure:"monitor_path" yaml:"monitor_path"`

	MaxConcurrentRequests int `json:"max_concurrent_requests" mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		QC: QCSettings{
			DowngradeErrorsFor: []string{},
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
			Color:  true,
		},
		Performance: PerformanceConfig{
			MaxGoroutines:  DefaultMaxGoroutines,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Batch: BatchConfig{
			DataFileNames:  constants.DefaultDataFileNames(),
			IgnorePatterns: []string{},
		},
		Server: ServerConfig{
			Port:                  DefaultServerPort,
			MonitorPath:           ".",
			MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		},
	}
}

// LoadConfig loads configuration from file or returns default config
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigWithTarget(configPath, "")
}

// LoadConfigWithTarget loads configuration with target path context.
// When configPath is empty the file is discovered from targetPath upward.
func LoadConfigWithTarget(configPath string, targetPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfig(targetPath)
	}
	return loadConfigFromFile(configPath)
}

// loadConfigFromFile reads and parses a configuration file, environment
// variables prefixed with SEQGATE_ override file values
func loadConfigFromFile(configPath string) (*Config, error) {
	// Create a new viper instance to avoid race conditions
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, domain.NewConfigError(fmt.Sprintf("failed to read config file %s", configPath), err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, domain.NewConfigError("failed to unmarshal config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, domain.NewConfigError("invalid configuration", err)
	}

	// A relative rule file is relative to the settings file
	if configPath != "" && config.QC.ConfigPath != "" && !filepath.IsAbs(config.QC.ConfigPath) {
		config.QC.ConfigPath = filepath.Join(filepath.Dir(configPath), config.QC.ConfigPath)
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("qc.config_path", d.QC.ConfigPath)
	v.SetDefault("qc.use_closest_read_length", d.QC.UseClosestReadLength)
	v.SetDefault("qc.downgrade_errors_for", d.QC.DowngradeErrorsFor)
	v.SetDefault("qc.view", d.QC.View)
	v.SetDefault("output.format", d.Output.Format)
	v.SetDefault("output.color", d.Output.Color)
	v.SetDefault("performance.max_goroutines", d.Performance.MaxGoroutines)
	v.SetDefault("performance.timeout_seconds", d.Performance.TimeoutSeconds)
	v.SetDefault("batch.data_file_names", d.Batch.DataFileNames)
	v.SetDefault("batch.ignore_patterns", d.Batch.IgnorePatterns)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.monitor_path", d.Server.MonitorPath)
	v.SetDefault("server.max_concurrent_requests", d.Server.MaxConcurrentRequests)
}

// searchConfigInDirectory searches for configuration files in a specific directory
func searchConfigInDirectory(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// findDefaultConfig looks for default configuration files in common locations.
// targetPath is the runfolder or data file being checked.
func findDefaultConfig(targetPath string) string {
	candidates := constants.ConfigFileNames()

	if targetPath != "" {
		absPath, err := filepath.Abs(targetPath)
		if err == nil {
			// If it's a file, start from its directory
			info, err := os.Stat(absPath)
			if err == nil && !info.IsDir() {
				absPath = filepath.Dir(absPath)
			}

			volume := filepath.VolumeName(absPath)
			for dir := absPath; ; dir = filepath.Dir(dir) {
				if config := searchConfigInDirectory(dir, candidates); config != "" {
					return config
				}

				parent := filepath.Dir(dir)
				if parent == dir ||
					dir == volume ||
					(volume != "" && dir == volume+string(filepath.Separator)) {
					break
				}
			}
		}
	}

	// Fallback to current directory
	if config := searchConfigInDirectory(".", candidates); config != "" {
		return config
	}

	// Check XDG config directory (Linux/Mac standard)
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if config := searchConfigInDirectory(filepath.Join(xdgConfig, constants.ToolName), candidates); config != "" {
			return config
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		if config := searchConfigInDirectory(filepath.Join(home, ".config", constants.ToolName), candidates); config != "" {
			return config
		}
	}

	if envConfig := os.Getenv(constants.EnvVarPrefix + "_CONFIG"); envConfig != "" {
		if _, err := os.Stat(envConfig); err == nil {
			return envConfig
		}
	}

	return ""
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	validFormats := map[string]bool{
		"json": true,
		"yaml": true,
		"text": true,
		"html": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: json, yaml, text, html", c.Output.Format)
	}

	if c.QC.View != "" && !domain.IsKnownView(c.QC.View) {
		return fmt.Errorf("invalid qc.view '%s', must be one of: %s", c.QC.View, strings.Join(domain.ViewNames(), ", "))
	}

	if c.Performance.MaxGoroutines < 1 {
		return fmt.Errorf("performance.max_goroutines must be >= 1, got %d", c.Performance.MaxGoroutines)
	}
	if c.Performance.TimeoutSeconds < 0 {
		return fmt.Errorf("performance.timeout_seconds must be >= 0, got %d", c.Performance.TimeoutSeconds)
	}

	if len(c.Batch.DataFileNames) == 0 {
		return fmt.Errorf("batch.data_file_names cannot be empty")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxConcurrentRequests < 1 {
		return fmt.Errorf("server.max_concurrent_requests must be >= 1, got %d", c.Server.MaxConcurrentRequests)
	}

	return nil
}
