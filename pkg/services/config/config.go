package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// AnalyzerConfig carries the thresholds the heuristic rule battery and
// the AI context builder are parameterized with.
type AnalyzerConfig struct {
	// WorkerCountThreshold is the worker count above which a running
	// cluster without workload signal is flagged high severity.
	WorkerCountThreshold int `mapstructure:"worker_count_threshold"`
	// CPUUtilizationThreshold is the peak-utilization fraction below
	// which a multi-node cluster is considered over-provisioned.
	CPUUtilizationThreshold float64 `mapstructure:"cpu_utilization_threshold"`
	// MonthlyHoursEstimate is the hours-running figure used by the
	// savings formula when a resource reports none of its own.
	MonthlyHoursEstimate float64 `mapstructure:"monthly_hours_estimate"`
	// MaxResourcesPerType caps how many records of each type enter the
	// AI context before deterministic truncation kicks in.
	MaxResourcesPerType int `mapstructure:"max_resources_per_type"`
	// JobRunSampleSize bounds how many jobs get run-history sampling.
	JobRunSampleSize int `mapstructure:"job_run_sample_size"`
}

type OpenAIConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	AzureEndpoint   string `mapstructure:"azure_endpoint"`
	AzureAPIKey     string `mapstructure:"azure_api_key"`
	AzureDeployment string `mapstructure:"azure_deployment"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// Configured reports whether either the plain OpenAI or the Azure
// OpenAI credential set is complete.
func (c OpenAIConfig) Configured() bool {
	if c.AzureEndpoint != "" && c.AzureAPIKey != "" && c.AzureDeployment != "" {
		return true
	}
	return c.APIKey != ""
}

func (c OpenAIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	// Profile selects the .databrickscfg section to use.
	Profile string `mapstructure:"profile"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse advisor config: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always unmarshal cleanly.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("profile", "DEFAULT")
	v.SetDefault("analyzer.worker_count_threshold", 4)
	v.SetDefault("analyzer.cpu_utilization_threshold", 0.3)
	v.SetDefault("analyzer.monthly_hours_estimate", 720)
	v.SetDefault("analyzer.max_resources_per_type", 25)
	v.SetDefault("analyzer.job_run_sample_size", 10)
	v.SetDefault("openai.model", "gpt-4-turbo-preview")
	v.SetDefault("openai.timeout_seconds", 60)
}
