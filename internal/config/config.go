package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// CurrentVersion is the config schema version.
	CurrentVersion = 1

	// DefaultConfigDir holds config.json and the history database.
	DefaultConfigDir = ".disabled-tests"

	// EnvPrefix prefixes environment overrides: DTI_REPOSITORY_OWNER, DTI_ANALYSIS_LITE, ...
	EnvPrefix = "DTI"
)

// Source kinds.
const (
	SourceGitHub = "github"
	SourceGit    = "git"
	SourceDir    = "dir"
)

// Config is the complete inspector configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Repository RepositoryConfig `json:"repository" mapstructure:"repository"`
	Output     OutputConfig     `json:"output" mapstructure:"output"`
	Analysis   AnalysisConfig   `json:"analysis" mapstructure:"analysis"`
	Tracker    TrackerConfig    `json:"tracker" mapstructure:"tracker"`
	Storage    StorageConfig    `json:"storage" mapstructure:"storage"`
	S3         S3Config         `json:"s3" mapstructure:"s3"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// RepositoryConfig says which repository and branches to inspect.
type RepositoryConfig struct {
	Owner    string   `json:"owner" mapstructure:"owner"`
	Name     string   `json:"name" mapstructure:"name"`
	Branches []string `json:"branches" mapstructure:"branches"`
	// Source is github, git (local clone) or dir (plain directory).
	Source    string `json:"source" mapstructure:"source"`
	LocalPath string `json:"localPath" mapstructure:"localPath"`
	WebBase   string `json:"webBase" mapstructure:"webBase"`
	APIBase   string `json:"apiBase" mapstructure:"apiBase"`
}

// Slug returns owner/name.
func (r RepositoryConfig) Slug() string {
	return r.Owner + "/" + r.Name
}

// OutputConfig controls report files.
type OutputConfig struct {
	Dir          string   `json:"dir" mapstructure:"dir"`
	BaseFileName string   `json:"baseFileName" mapstructure:"baseFileName"`
	Formats      []string `json:"formats" mapstructure:"formats"`
	Gzip         bool     `json:"gzip" mapstructure:"gzip"`
}

// AnalysisConfig tunes extraction.
type AnalysisConfig struct {
	Lite             bool   `json:"lite" mapstructure:"lite"`
	Parallelism      int    `json:"parallelism" mapstructure:"parallelism"`
	FetchConcurrency int    `json:"fetchConcurrency" mapstructure:"fetchConcurrency"`
	PolicyFile       string `json:"policyFile" mapstructure:"policyFile"`
	CountTests       bool   `json:"countTests" mapstructure:"countTests"`
}

// TrackerConfig configures issue state lookups.
type TrackerConfig struct {
	CheckClosed bool   `json:"checkClosed" mapstructure:"checkClosed"`
	GitHubHost  string `json:"githubHost" mapstructure:"githubHost"`
	GitHubToken string `json:"githubToken,omitempty" mapstructure:"githubToken"`
	JiraEnabled bool   `json:"jiraEnabled" mapstructure:"jiraEnabled"`
	JiraBase    string `json:"jiraBase" mapstructure:"jiraBase"`
	JiraToken   string `json:"jiraToken,omitempty" mapstructure:"jiraToken"`
	// TicketBase is prepended to bare ticket IDs.
	TicketBase string `json:"ticketBase" mapstructure:"ticketBase"`
	TimeoutMs  int    `json:"timeoutMs" mapstructure:"timeoutMs"`
	CacheSize  int    `json:"cacheSize" mapstructure:"cacheSize"`
}

// Timeout returns TimeoutMs as a duration.
func (t TrackerConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// StorageConfig controls the run history database.
type StorageConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
}

// S3Config configures uploading reports to an S3-compatible bucket.
type S3Config struct {
	Enabled   bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint  string `json:"endpoint" mapstructure:"endpoint"`
	Bucket    string `json:"bucket" mapstructure:"bucket"`
	Prefix    string `json:"prefix" mapstructure:"prefix"`
	Region    string `json:"region" mapstructure:"region"`
	AccessKey string `json:"accessKey,omitempty" mapstructure:"accessKey"`
	SecretKey string `json:"secretKey,omitempty" mapstructure:"secretKey"`
	UseSSL    bool   `json:"useSSL" mapstructure:"useSSL"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Repository: RepositoryConfig{
			Owner:    "quarkus-qe",
			Name:     "quarkus-test-suite",
			Branches: []string{"main"},
			Source:   SourceGitHub,
			WebBase:  "https://github.com",
			APIBase:  "https://api.github.com",
		},
		Output: OutputConfig{
			Dir:          ".",
			BaseFileName: "disabled-tests.json",
			Formats:      []string{"json"},
		},
		Analysis: AnalysisConfig{
			Parallelism:      4,
			FetchConcurrency: 8,
		},
		Tracker: TrackerConfig{
			CheckClosed: true,
			GitHubHost:  "github.com",
			JiraBase:    "https://issues.redhat.com",
			TicketBase:  "https://issues.redhat.com/browse/",
			TimeoutMs:   10000,
			CacheSize:   1024,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    filepath.Join(DefaultConfigDir, "history.db"),
		},
		S3: S3Config{
			Prefix: "disabled-tests",
			UseSSL: true,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "warn",
		},
	}
}

// LoadConfig reads configFile, or .disabled-tests/config.json under the
// working directory when configFile is empty. A missing default file is
// not an error. Environment variables with the DTI_ prefix override file
// values; GITHUB_TOKEN and JIRA_TOKEN are honored for the tracker tokens.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")

	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("tracker.githubToken", EnvPrefix+"_TRACKER_GITHUBTOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv("tracker.jiraToken", EnvPrefix+"_TRACKER_JIRATOKEN", "JIRA_TOKEN")
	_ = v.BindEnv("s3.accessKey", EnvPrefix+"_S3_ACCESSKEY", "AWS_ACCESS_KEY_ID")
	_ = v.BindEnv("s3.secretKey", EnvPrefix+"_S3_SECRETKEY", "AWS_SECRET_ACCESS_KEY")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(DefaultConfigDir)
	}
	if err := v.MergeInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration as indented JSON. Tokens and keys are not written.
func (c *Config) Save(path string) error {
	clean := *c
	clean.Tracker.GitHubToken = ""
	clean.Tracker.JiraToken = ""
	clean.S3.AccessKey = ""
	clean.S3.SecretKey = ""

	data, err := json.MarshalIndent(&clean, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var knownFormats = []string{"json", "yaml", "toml"}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}

	switch c.Repository.Source {
	case SourceGitHub:
		if c.Repository.Owner == "" || c.Repository.Name == "" {
			return &ConfigError{Field: "repository", Message: "owner and name are required for the github source"}
		}
	case SourceGit, SourceDir:
		if c.Repository.LocalPath == "" {
			return &ConfigError{Field: "repository.localPath", Message: "required for the " + c.Repository.Source + " source"}
		}
	default:
		return &ConfigError{Field: "repository.source", Message: fmt.Sprintf("unknown source %q (want github, git or dir)", c.Repository.Source)}
	}
	if c.Repository.Source != SourceDir && len(c.Repository.Branches) == 0 {
		return &ConfigError{Field: "repository.branches", Message: "at least one branch is required"}
	}

	if c.Output.BaseFileName == "" {
		return &ConfigError{Field: "output.baseFileName", Message: "must not be empty"}
	}
	if len(c.Output.Formats) == 0 {
		return &ConfigError{Field: "output.formats", Message: "at least one format is required"}
	}
	for _, f := range c.Output.Formats {
		if !slices.Contains(knownFormats, strings.ToLower(f)) {
			return &ConfigError{Field: "output.formats", Message: fmt.Sprintf("unknown format %q", f)}
		}
	}

	if c.Analysis.Parallelism < 1 {
		return &ConfigError{Field: "analysis.parallelism", Message: "must be at least 1"}
	}
	if c.Tracker.TimeoutMs < 0 {
		return &ConfigError{Field: "tracker.timeoutMs", Message: "must not be negative"}
	}
	if c.Tracker.JiraEnabled && c.Tracker.JiraBase == "" {
		return &ConfigError{Field: "tracker.jiraBase", Message: "required when jira is enabled"}
	}
	if c.Storage.Enabled && c.Storage.Path == "" {
		return &ConfigError{Field: "storage.path", Message: "required when storage is enabled"}
	}
	if c.S3.Enabled && (c.S3.Endpoint == "" || c.S3.Bucket == "") {
		return &ConfigError{Field: "s3", Message: "endpoint and bucket are required when upload is enabled"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
