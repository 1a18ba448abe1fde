package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxContentBytes bounds Drive downloads and exports.
	DefaultMaxContentBytes int64 = 32 << 20

	DefaultAPITimeout       = 60 * time.Second
	DefaultHandshakeTimeout = 5 * time.Minute

	appDirName      = "servar"
	credsFileName   = "client_creds.json"
	mailTokenName   = "mail_token.json"
	storeTokenName  = "storage_token.json"
	courseTokenName = "courses_token.json"
)

// Environment variable names.
const (
	EnvCredsFile        = "SERVAR_CREDS_FILE"
	EnvMailCredsFile    = "SERVAR_MAIL_CREDS_FILE"
	EnvMailTokenFile    = "SERVAR_MAIL_TOKEN_FILE"
	EnvStorageCredsFile = "SERVAR_STORAGE_CREDS_FILE"
	EnvStorageTokenFile = "SERVAR_STORAGE_TOKEN_FILE"
	EnvCourseCredsFile  = "SERVAR_COURSE_CREDS_FILE"
	EnvCourseTokenFile  = "SERVAR_COURSE_TOKEN_FILE"
	EnvMaxContentBytes  = "SERVAR_MAX_CONTENT_BYTES"
	EnvAPITimeout       = "SERVAR_API_TIMEOUT"
	EnvGoogleAPITimeout = "GOOGLE_API_TIMEOUT"
	EnvHandshakeTimeout = "SERVAR_HANDSHAKE_TIMEOUT"
	EnvConfigFile       = "SERVAR_CONFIG"
	defaultEnvFileName  = ".env"
)

// Config holds the file locations and limits used by the provider clients.
type Config struct {
	MailCredsPath    string `yaml:"mail_creds_path"`
	MailTokenPath    string `yaml:"mail_token_path"`
	StorageCredsPath string `yaml:"storage_creds_path"`
	StorageTokenPath string `yaml:"storage_token_path"`
	CourseCredsPath  string `yaml:"course_creds_path"`
	CourseTokenPath  string `yaml:"course_token_path"`

	// MaxContentBytes is the largest file body drive_read_file_content will buffer.
	MaxContentBytes int64 `yaml:"max_content_bytes"`

	// APITimeout is the outbound HTTP client timeout for Google API calls.
	APITimeout time.Duration `yaml:"api_timeout"`

	// HandshakeTimeout bounds how long the browser consent flow may wait for a callback.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// Default returns the built-in configuration. Files live under the user
// config directory, falling back to the working directory when it is unknown.
func Default() Config {
	dir := appDirName
	if base, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(base, appDirName)
	}
	creds := filepath.Join(dir, credsFileName)

	return Config{
		MailCredsPath:    creds,
		MailTokenPath:    filepath.Join(dir, mailTokenName),
		StorageCredsPath: creds,
		StorageTokenPath: filepath.Join(dir, storeTokenName),
		CourseCredsPath:  creds,
		CourseTokenPath:  filepath.Join(dir, courseTokenName),
		MaxContentBytes:  DefaultMaxContentBytes,
		APITimeout:       DefaultAPITimeout,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}

// Load builds a Config from defaults, the YAML file at configFile (if set),
// the env file at envFile (or ./.env when present) and the environment.
func Load(configFile, envFile string) (Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return Config{}, err
	}

	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv(EnvConfigFile)
	}
	if configFile != "" {
		if err := cfg.LoadFile(configFile); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadEnvFile loads variables from path into the process environment without
// overriding variables that are already set. An empty path loads ./.env if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(defaultEnvFileName); err != nil {
			return nil
		}
		path = defaultEnvFileName
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// LoadFile overlays the YAML file at path onto c. Environment references in
// the file are expanded before decoding. Keys absent from the file keep their value.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays SERVAR_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvCredsFile); v != "" {
		c.MailCredsPath = v
		c.StorageCredsPath = v
		c.CourseCredsPath = v
	}

	setString(&c.MailCredsPath, EnvMailCredsFile)
	setString(&c.MailTokenPath, EnvMailTokenFile)
	setString(&c.StorageCredsPath, EnvStorageCredsFile)
	setString(&c.StorageTokenPath, EnvStorageTokenFile)
	setString(&c.CourseCredsPath, EnvCourseCredsFile)
	setString(&c.CourseTokenPath, EnvCourseTokenFile)

	if v := os.Getenv(EnvMaxContentBytes); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvMaxContentBytes, v, err)
		}
		c.MaxContentBytes = n
	}

	// GOOGLE_API_TIMEOUT is accepted as seconds or a duration string.
	for _, key := range []string{EnvGoogleAPITimeout, EnvAPITimeout} {
		if v := os.Getenv(key); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			c.APITimeout = d
		}
	}

	if v := os.Getenv(EnvHandshakeTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvHandshakeTimeout, v, err)
		}
		c.HandshakeTimeout = d
	}

	return nil
}

// Paths returns the client secret and token file paths for a provider:
// "mail", "storage" or "courses".
func (c Config) Paths(provider string) (credsPath, tokenPath string, err error) {
	switch provider {
	case "mail":
		return c.MailCredsPath, c.MailTokenPath, nil
	case "storage":
		return c.StorageCredsPath, c.StorageTokenPath, nil
	case "courses":
		return c.CourseCredsPath, c.CourseTokenPath, nil
	default:
		return "", "", fmt.Errorf("unknown provider %q", provider)
	}
}

// Validate checks that every path is set and limits are positive.
func (c *Config) Validate() error {
	var errs []error

	paths := []struct {
		name  string
		value string
	}{
		{"mail credentials path", c.MailCredsPath},
		{"mail token path", c.MailTokenPath},
		{"storage credentials path", c.StorageCredsPath},
		{"storage token path", c.StorageTokenPath},
		{"course credentials path", c.CourseCredsPath},
		{"course token path", c.CourseTokenPath},
	}
	for _, p := range paths {
		if p.value == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", p.name))
		}
	}

	if c.MaxContentBytes <= 0 {
		errs = append(errs, fmt.Errorf("max content bytes must be positive, got %d", c.MaxContentBytes))
	}
	if c.APITimeout <= 0 {
		errs = append(errs, fmt.Errorf("api timeout must be positive, got %s", c.APITimeout))
	}
	if c.HandshakeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("handshake timeout must be positive, got %s", c.HandshakeTimeout))
	}

	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func parseDuration(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}
