package app

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/astronauts/internal/server"
	"github.com/agentstation/astronauts/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool

	// Config file
	ConfigFile string

	// Seed file; empty means the embedded fixtures
	FixturesPath string

	// HTTP defaults for the serve command
	HTTPHost    string
	HTTPPort    int
	PathPrefix  string
	CORSOrigins []string

	// Logging configuration. LogLevel is only ever set by --log-level;
	// EnvLogLevel carries LOG_LEVEL so the two can be ranked.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (configFile, or ~/.astronauts.yaml)
//  5. Defaults
func LoadConfig(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	if err := v.BindEnv("fixtures", "ASTRONAUTS_FIXTURES"); err != nil {
		return nil, errors.NewConfigError("env", "cannot bind ASTRONAUTS_FIXTURES", err)
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read config file "+configFile, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".astronauts")
		// Missing default config is fine
		_ = v.ReadInConfig()
	}

	port, err := parseEnvPort(v.GetString("http.port"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color") || os.Getenv("NO_COLOR") != "",

		ConfigFile:   v.ConfigFileUsed(),
		FixturesPath: v.GetString("fixtures"),

		HTTPHost:    v.GetString("http.host"),
		HTTPPort:    port,
		PathPrefix:  v.GetString("http.prefix"),
		CORSOrigins: v.GetStringSlice("http.cors_origins"),

		EnvLogLevel: strings.ToLower(v.GetString("log.level")),
		LogFormat:   getOrDefault(v, "log.format", "auto"),
		LogOutput:   getOrDefault(v, "log.output", "stderr"),
	}

	return config, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, logLevel, logFormat string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if logLevel != "" {
		c.LogLevel = strings.ToLower(logLevel)
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
}

// ServerConfig returns the server defaults with any configured HTTP
// overrides applied. Flags given to serve take precedence over these.
func (c *Config) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	if c.HTTPHost != "" {
		cfg.Host = c.HTTPHost
	}
	if c.HTTPPort != 0 {
		cfg.Port = c.HTTPPort
	}
	if c.PathPrefix != "" {
		cfg.PathPrefix = c.PathPrefix
	}
	if len(c.CORSOrigins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSOrigins = c.CORSOrigins
	}
	return cfg
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are never overwritten,
// so .env.local only fills what .env left unset.
func loadEnvFiles() {
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Load(envFile)
	}
}

func parseEnvPort(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return 0, errors.NewConfigError("http", "invalid port "+strconv.Quote(value), err)
	}
	return port, nil
}

func getOrDefault(v *viper.Viper, key, defaultValue string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return defaultValue
}
