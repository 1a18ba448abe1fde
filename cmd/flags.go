package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/servar-dev/servar/internal/config"
	"github.com/servar-dev/servar/internal/logging"
)

// commonFlags are shared by the commands that load configuration.
type commonFlags struct {
	configFile string
	envFile    string
	logFormat  string
	logLevel   string

	mailCreds    string
	mailToken    string
	storageCreds string
	storageToken string
	courseCreds  string
	courseToken  string

	maxContentBytes  int64
	apiTimeout       time.Duration
	handshakeTimeout time.Duration
}

func (f *commonFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file (default: $SERVAR_CONFIG)")
	fs.StringVar(&f.envFile, "env-file", "", "Environment file to load (default: ./.env when present)")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	fs.StringVar(&f.mailCreds, "mail-creds-file", "", "Gmail OAuth client secret file")
	fs.StringVar(&f.mailToken, "mail-token-file", "", "Gmail token file")
	fs.StringVar(&f.storageCreds, "storage-creds-file", "", "Drive OAuth client secret file")
	fs.StringVar(&f.storageToken, "storage-token-file", "", "Drive token file")
	fs.StringVar(&f.courseCreds, "course-creds-file", "", "Classroom OAuth client secret file")
	fs.StringVar(&f.courseToken, "course-token-file", "", "Classroom token file")

	fs.Int64Var(&f.maxContentBytes, "max-content-bytes", config.DefaultMaxContentBytes, "Largest Drive file body read into memory")
	fs.DurationVar(&f.apiTimeout, "api-timeout", config.DefaultAPITimeout, "Timeout for each Google API request")
	fs.DurationVar(&f.handshakeTimeout, "handshake-timeout", config.DefaultHandshakeTimeout, "How long to wait for browser consent")
}

// loadConfig layers explicitly set flags over the file and environment configuration.
func (f *commonFlags) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configFile, f.envFile)
	if err != nil {
		return config.Config{}, err
	}

	fs := cmd.Flags()
	paths := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"mail-creds-file", f.mailCreds, &cfg.MailCredsPath},
		{"mail-token-file", f.mailToken, &cfg.MailTokenPath},
		{"storage-creds-file", f.storageCreds, &cfg.StorageCredsPath},
		{"storage-token-file", f.storageToken, &cfg.StorageTokenPath},
		{"course-creds-file", f.courseCreds, &cfg.CourseCredsPath},
		{"course-token-file", f.courseToken, &cfg.CourseTokenPath},
	}
	for _, s := range paths {
		if fs.Changed(s.flag) {
			*s.dst = s.value
		}
	}
	if fs.Changed("max-content-bytes") {
		cfg.MaxContentBytes = f.maxContentBytes
	}
	if fs.Changed("api-timeout") {
		cfg.APITimeout = f.apiTimeout
	}
	if fs.Changed("handshake-timeout") {
		cfg.HandshakeTimeout = f.handshakeTimeout
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogger builds the stderr logger and installs it as the slog default.
// stdout is reserved for the stdio transport.
func (f *commonFlags) setupLogger() (*slog.Logger, error) {
	logger, err := logging.NewLogger(os.Stderr, f.logFormat, f.logLevel)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
