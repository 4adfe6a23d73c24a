// Package config loads quahog's settings from .quahog.yaml and the
// environment.
//
// Files are searched in the current directory and the user's home directory;
// environment variables use the QUAHOG_ prefix (QUAHOG_JJ_BINARY overrides
// jj_binary). A missing config file is not an error.
package config

import (
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the tool settings.
type Config struct {
	// JJBinary is the jj executable to invoke (default "jj").
	JJBinary string `mapstructure:"jj_binary"`

	// GitBinary is the git executable used for patch application
	// (default "git").
	GitBinary string `mapstructure:"git_binary"`

	// Color controls styled output: "auto", "always" or "never".
	Color string `mapstructure:"color"`

	// Debug configures the rotating debug log.
	Debug DebugLog `mapstructure:"debug"`
}

// DebugLog configures the optional debug log file.
type DebugLog struct {
	// File is the log path; empty disables debug logging.
	File string `mapstructure:"file"`

	// MaxSizeMB is the rotation threshold in megabytes.
	MaxSizeMB int `mapstructure:"max_size_mb"`

	// MaxBackups is the number of rotated files to keep.
	MaxBackups int `mapstructure:"max_backups"`
}

// Load reads .quahog.yaml and the QUAHOG_* environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName(".quahog")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}

	v.SetEnvPrefix("QUAHOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("jj_binary", "jj")
	v.SetDefault("git_binary", "git")
	v.SetDefault("color", "auto")
	v.SetDefault("debug.max_size_mb", 10)
	v.SetDefault("debug.max_backups", 3)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger returns the debug logger. With no debug file configured the logger
// discards everything; otherwise it writes to a size-rotated file.
func (c Config) Logger() *log.Logger {
	var w io.Writer = io.Discard
	if c.Debug.File != "" {
		w = &lumberjack.Logger{
			Filename:   c.Debug.File,
			MaxSize:    c.Debug.MaxSizeMB,
			MaxBackups: c.Debug.MaxBackups,
		}
	}
	return log.New(w, "quahog ", log.LstdFlags|log.Lmsgprefix)
}
