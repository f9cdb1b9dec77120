// Package config loads settings from .trellis.yaml, the environment and .env, and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TRELLIS_DB_PATH.
	EnvPrefix = "TRELLIS"
	// PathEnv names a directory to search for the config file before the defaults.
	PathEnv = "TRELLIS_CONFIG_PATH"

	configName = ".trellis"
	timeFormat = "2006-01-02_15:04:05"
)

// Config is the resolved application configuration.
type Config struct {
	DBPath string       `mapstructure:"db_path"`
	Log    LogConfig    `mapstructure:"log"`
	Server ServerConfig `mapstructure:"server"`
}

// LogConfig controls the global logger. An empty File logs to the console.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", "~/.trellis/trellis.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
}

// Load reads the configuration. A non-empty file is read exactly; otherwise .trellis.yaml is
// searched for in $TRELLIS_CONFIG_PATH, the working directory and the home directory, and a
// missing file is not an error. Environment variables override the file.
func Load(v *viper.Viper, file string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")

		if override := os.Getenv(PathEnv); override != "" {
			v.AddConfigPath(override)
		}

		v.AddConfigPath(".")

		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}

	var err error

	if cfg.DBPath, err = homedir.Expand(cfg.DBPath); err != nil {
		return Config{}, fmt.Errorf("error expanding db_path: %w", err)
	}

	if cfg.Log.File, err = homedir.Expand(cfg.Log.File); err != nil {
		return Config{}, fmt.Errorf("error expanding log.file: %w", err)
	}

	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SetupLogging points the global zerolog logger at a rotating JSON file, or at a console writer
// on console when no file is configured. The returned closer releases the file.
func SetupLogging(cfg LogConfig, console io.Writer) (io.Closer, error) {
	level := zerolog.InfoLevel

	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("error parsing log level %q: %w", cfg.Level, err)
		}

		level = parsed
	}

	zerolog.SetGlobalLevel(level)

	if cfg.File == "" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}).
			With().Timestamp().Caller().Logger()

		return nopCloser{}, nil
	}

	dirPerms := 0o755
	if err := os.MkdirAll(filepath.Dir(cfg.File), fs.FileMode(dirPerms)); err != nil {
		return nil, fmt.Errorf("error creating log directory: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		LocalTime:  true,
	}

	log.Logger = zerolog.New(file).With().Timestamp().Caller().Logger()

	return file, nil
}
