package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phlcrny/Install-GitLabRunner/internal/config"
	"github.com/phlcrny/Install-GitLabRunner/internal/logger"
	"github.com/phlcrny/Install-GitLabRunner/internal/service/installer"
	"github.com/phlcrny/Install-GitLabRunner/internal/version"
)

var (
	// configPath to the optional configuration YAML file.
	configPath string

	// logLevel sets the minimum level for console output.
	logLevel string

	// Flag values layered over the configuration file.
	installDir      string
	downloadDir     string
	apiURL          string
	serviceName     string
	allowPrerelease bool
	backup          bool
	force           bool

	// rootCmd represents the base command that installs or updates the runner.
	rootCmd = &cobra.Command{
		Use:   "gitlab-runner-installer",
		Short: "Install or update the GitLab Runner executable and its service",
		Long: "Resolves the latest applicable runner release, downloads and verifies the " +
			"binary, and swaps it into the service slot while preserving service continuity.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			return installer.Run(ctx, cfg)
		},
	}
)

// resolveConfig loads the settings file when present and layers the
// command-line flags on top. A missing default settings file is not an
// error; the built-in defaults apply.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("install-dir") {
		cfg.InstallDir = installDir
	}

	if flags.Changed("download-dir") {
		cfg.DownloadDir = downloadDir
	}

	if flags.Changed("api-url") {
		cfg.APIURL = apiURL
	}

	if flags.Changed("service-name") {
		cfg.ServiceName = serviceName
	}

	if flags.Changed("pre-release") {
		cfg.AllowPrerelease = allowPrerelease
	}

	if flags.Changed("backup") {
		cfg.Backup = backup
	}

	cfg.Force = force

	return cfg, nil
}

// Execute runs the installer CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	flags.StringVar(&installDir, "install-dir", "", "directory holding the runner executable")
	flags.StringVar(&downloadDir, "download-dir", "", "directory for downloaded artifacts")
	flags.StringVar(&apiURL, "api-url", "", "release feed endpoint")
	flags.StringVar(&serviceName, "service-name", "", "OS service name of the runner")
	flags.BoolVar(&allowPrerelease, "pre-release", false, "allow release-candidate versions")
	flags.BoolVar(&backup, "backup", false, "keep a timestamped copy of the previous executable")
	flags.BoolVar(&force, "force", false, "reinstall and override checksum failures")
}
