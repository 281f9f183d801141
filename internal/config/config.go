// Package config gathers pgshell's startup options from their sources.
// Priority, highest first: command-line flags, PGSHELL_* environment
// variables (including those set by .env files), pgshell.yaml, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the resolved startup configuration.
type Config struct {
	DBName   string `mapstructure:"dbname"`
	Driver   string `mapstructure:"driver"`
	LogLevel string `mapstructure:"log-level"`
	LogFile  string `mapstructure:"log-file"`
	// Variables are NAME=value assignments applied before -v options.
	Variables []string `mapstructure:"variables"`
}

// Loader reads configuration files. Zero fields fall back to the user's
// config directory and the working directory.
type Loader struct {
	// ConfigDir holds the user-wide .env and pgshell.yaml.
	ConfigDir string
	// WorkDir holds the project-local .env and pgshell.yaml.
	WorkDir string
	// ConfigFile, when set, is the only YAML file read and must exist.
	ConfigFile string

	v *viper.Viper
}

// NewLoader creates a loader with PGSHELL_* environment binding.
func NewLoader() *Loader {
	v := viper.New()
	v.SetEnvPrefix("PGSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("dbname", "")
	v.SetDefault("driver", "")
	v.SetDefault("log-level", "")
	v.SetDefault("log-file", "")
	v.SetDefault("variables", []string{})

	return &Loader{v: v}
}

// DefaultConfigDir returns ~/.config/pgshell.
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "pgshell"), nil
}

// BindFlags makes flags override the file and environment values of the
// same name. Flags not given on the command line do not override anything.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for _, name := range []string{"dbname", "driver", "log-level", "log-file"} {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := l.v.BindPFlag(name, flag); err != nil {
			return fmt.Errorf("failed to bind %s flag: %w", name, err)
		}
	}
	return nil
}

// LoadDotEnv loads the local .env and then the user-wide one into the
// process environment. Variables already set are never overridden, so the
// process environment wins over the local file, which wins over the user file.
// It returns the files that were loaded.
func (l *Loader) LoadDotEnv() ([]string, error) {
	var loaded []string
	for _, dir := range []string{l.workDir(), l.configDir()} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, ".env")
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Load reads pgshell.yaml, if any, and resolves every source into a Config.
func (l *Loader) Load() (*Config, error) {
	if l.ConfigFile != "" {
		l.v.SetConfigFile(l.ConfigFile)
	} else {
		l.v.SetConfigName("pgshell")
		l.v.SetConfigType("yaml")
		if dir := l.workDir(); dir != "" {
			l.v.AddConfigPath(dir)
		}
		if dir := l.configDir(); dir != "" {
			l.v.AddConfigPath(dir)
		}
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigFileUsed returns the YAML file Load read, or "".
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) configDir() string {
	if l.ConfigDir != "" {
		return l.ConfigDir
	}
	dir, err := DefaultConfigDir()
	if err != nil {
		return ""
	}
	return dir
}

func (l *Loader) workDir() string {
	if l.WorkDir != "" {
		return l.WorkDir
	}
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// SplitAssignment splits "NAME=value" as -v does. A missing '=' means the
// variable is set to the empty string.
func SplitAssignment(s string) (name, value string) {
	name, value, _ = strings.Cut(s, "=")
	return name, value
}
