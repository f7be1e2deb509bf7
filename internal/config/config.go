package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the inputs for a single installer run.
type Config struct {
	// APIURL is the release feed endpoint listing runner releases.
	APIURL string `yaml:"api_url"`
	// DownloadBaseURL is the object-storage bucket hosting release binaries.
	DownloadBaseURL string `yaml:"download_base_url"`
	// InstallDir is the directory holding the installed runner executable.
	InstallDir string `yaml:"install_dir"`
	// DownloadDir is where release artifacts are downloaded before install.
	DownloadDir string `yaml:"download_dir"`
	// ServiceName is the OS service registered for the runner.
	ServiceName string `yaml:"service_name"`
	// Timeout bounds release feed and probe requests.
	Timeout time.Duration `yaml:"timeout"`
	// AllowPrerelease permits release-candidate tags as upgrade targets.
	AllowPrerelease bool `yaml:"allow_prerelease"`
	// Backup keeps a timestamped copy of the previous executable.
	Backup bool `yaml:"backup"`
	// Force is set at runtime to override skip decisions and checksum
	// failures. It is never persisted to YAML.
	Force bool `yaml:"-"`
}

const (
	// DefaultConfigFilename is the default filename for installer settings.
	DefaultConfigFilename = "runner-installer-settings.yaml"

	// DefaultAPIURL is the GitLab release feed for the runner project.
	DefaultAPIURL = "https://gitlab.com/api/v4/projects/gitlab-org%2Fgitlab-runner/releases"

	// DefaultDownloadBaseURL is the vendor bucket hosting runner binaries.
	DefaultDownloadBaseURL = "https://gitlab-runner-downloads.s3.amazonaws.com"

	// DefaultServiceName is the service identifier the runner registers under.
	DefaultServiceName = "gitlab-runner"

	// DefaultTimeout is the default duration for metadata and probe requests.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInstallDirRequired is returned when the install directory is missing.
	errInstallDirRequired = errors.New("install directory must be provided")
)

// Default returns a configuration with platform defaults filled in.
func Default() *Config {
	return &Config{
		APIURL:          DefaultAPIURL,
		DownloadBaseURL: DefaultDownloadBaseURL,
		InstallDir:      defaultInstallDir(),
		DownloadDir:     os.TempDir(),
		ServiceName:     DefaultServiceName,
		Timeout:         DefaultTimeout,
	}
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided configuration for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.InstallDir == "" {
		return errInstallDirRequired
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}

	if _, err := url.ParseRequestURI(cfg.APIURL); err != nil {
		return fmt.Errorf("invalid API URL: %w", err)
	}

	if cfg.DownloadBaseURL == "" {
		cfg.DownloadBaseURL = DefaultDownloadBaseURL
	}

	if _, err := url.ParseRequestURI(cfg.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	if cfg.DownloadDir == "" {
		cfg.DownloadDir = os.TempDir()
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = DefaultServiceName
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return nil
}

// defaultInstallDir picks the conventional runner location for the platform.
func defaultInstallDir() string {
	if runtime.GOOS == "windows" {
		return `C:\GitLab-Runner`
	}

	return "/opt/gitlab-runner"
}
