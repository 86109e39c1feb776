// Package config loads hcpctl settings from flags, environment, an optional
// config file and the Terraform CLI credentials file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys shared by flags, env bindings and the config file.
const (
	KeyHost         = "host"
	KeyToken        = "token"
	KeyOrganization = "org"
	KeyPollInterval = "poll-interval"
	KeyLogLevel     = "log-level"
)

const (
	DefaultHost         = "app.terraform.io"
	DefaultPollInterval = 2 * time.Second
	MinPollInterval     = time.Second
	DefaultLogLevel     = "warn"

	// CredentialsFile is where `terraform login` stores tokens, relative to the home directory.
	CredentialsFile = ".terraform.d/credentials.tfrc.json"
)

// TokenEnvVars are checked in order for an API token.
var TokenEnvVars = []string{"HCP_TOKEN", "TFC_TOKEN", "TFE_TOKEN"}

// Config is the resolved runtime configuration.
type Config struct {
	Host         string
	Token        string
	Organization string
	PollInterval time.Duration
	LogLevel     string

	// TokenSource says where Token came from, for diagnostics.
	TokenSource string
}

// NewViper returns a viper instance carrying hcpctl's defaults and
// environment bindings. Flags are bound onto it by the caller.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault(KeyHost, DefaultHost)
	v.SetDefault(KeyPollInterval, DefaultPollInterval)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)

	v.BindEnv(append([]string{KeyToken}, TokenEnvVars...)...)
	v.BindEnv(KeyHost, "TFE_HOSTNAME")
	v.BindEnv(KeyOrganization, "HCPCTL_ORG")
	v.BindEnv(KeyPollInterval, "HCPCTL_POLL_INTERVAL")
	v.BindEnv(KeyLogLevel, "HCPCTL_LOG_LEVEL")

	return v
}

// Options control where Load looks for files.
type Options struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string
	// HomeDir overrides the user's home directory.
	HomeDir string
}

// Load reads the config file into v and resolves the final Config. A token
// missing from flags, environment and config file is looked up in the
// Terraform credentials file for the configured host.
func Load(v *viper.Viper, opts Options) (*Config, error) {
	home := opts.HomeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
	}

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.AddConfigPath(filepath.Join(home, ".hcpctl"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	interval, err := parsePollInterval(v.Get(KeyPollInterval))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Host:         normalizeHost(v.GetString(KeyHost)),
		Token:        v.GetString(KeyToken),
		Organization: v.GetString(KeyOrganization),
		PollInterval: interval,
		LogLevel:     v.GetString(KeyLogLevel),
	}

	if cfg.Token != "" {
		cfg.TokenSource = "flag, environment or config file"
		return cfg, nil
	}

	credsPath := filepath.Join(home, CredentialsFile)
	token, err := ReadCredentialsToken(credsPath, cfg.Host)
	if err != nil {
		return nil, err
	}
	cfg.Token = token
	cfg.TokenSource = credsPath
	return cfg, nil
}

// ReadCredentialsToken returns the token stored for host in a Terraform
// credentials file ({"credentials": {"<host>": {"token": "..."}}}).
func ReadCredentialsToken(path, host string) (string, error) {
	// Host names contain dots, so keys are split on "::" instead.
	cv := viper.NewWithOptions(viper.KeyDelimiter("::"))
	cv.SetConfigFile(path)
	cv.SetConfigType("json")

	if err := cv.ReadInConfig(); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", &TokenNotFoundError{Host: host}
		}
		return "", fmt.Errorf("could not parse credentials file %s: %w", path, err)
	}

	token := cv.GetString("credentials::" + host + "::token")
	if token == "" {
		return "", &TokenNotFoundError{Host: host, CredentialsPath: path}
	}
	return token, nil
}

// TokenNotFoundError is returned when no source provides an API token.
type TokenNotFoundError struct {
	Host            string
	CredentialsPath string
}

func (e *TokenNotFoundError) Error() string {
	checked := "env vars [" + strings.Join(TokenEnvVars, ", ") + "]"
	if e.CredentialsPath != "" {
		checked += " or in credentials file " + e.CredentialsPath
	}
	return fmt.Sprintf("no API token found for host '%s'. Provide one with --token, "+
		"export HCP_TOKEN=<TOKEN> (also TFC_TOKEN, TFE_TOKEN), or run `terraform login %s`. Checked: %s",
		e.Host, e.Host, checked)
}

// parsePollInterval accepts a duration ("5s", "1m") or a bare number of
// seconds, as env vars and YAML config commonly carry it.
func parsePollInterval(value any) (time.Duration, error) {
	var d time.Duration
	switch val := value.(type) {
	case time.Duration:
		d = val
	case int:
		d = time.Duration(val) * time.Second
	case int64:
		d = time.Duration(val) * time.Second
	case float64:
		d = time.Duration(val * float64(time.Second))
	default:
		s := strings.TrimSpace(fmt.Sprint(val))
		if secs, err := strconv.Atoi(s); err == nil {
			d = time.Duration(secs) * time.Second
		} else if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid %s %q: want a duration such as 5s or a number of seconds", KeyPollInterval, s)
		}
	}

	if d < MinPollInterval {
		return 0, fmt.Errorf("invalid %s %v: must be at least %v", KeyPollInterval, d, MinPollInterval)
	}
	return d, nil
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return DefaultHost
	}
	return host
}
