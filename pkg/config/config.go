package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string `validate:"oneof=development production"`

	Query    QueryConfig
	Download DownloadConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// QueryConfig locates the external admit card query service.
type QueryConfig struct {
	BaseURL string `validate:"required,url"`
	Path    string `validate:"required,startswith=/"`
}

// Endpoint joins the base URL and query path.
func (q QueryConfig) Endpoint() string {
	return strings.TrimRight(q.BaseURL, "/") + q.Path
}

// DownloadConfig controls where navigated files are saved.
type DownloadConfig struct {
	Dir string `validate:"required"`
}

type LogConfig struct {
	Level  string
	Format string `validate:"omitempty,oneof=json console"`
}

// MetricsConfig enables a Prometheus textfile dump on exit when TextfilePath is set.
type MetricsConfig struct {
	TextfilePath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Query = QueryConfig{
		BaseURL: strings.TrimSpace(v.GetString("QUERY_BASE_URL")),
		Path:    strings.TrimSpace(v.GetString("QUERY_PATH")),
	}

	cfg.Download = DownloadConfig{
		Dir: strings.TrimSpace(v.GetString("DOWNLOAD_DIR")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{
		TextfilePath: strings.TrimSpace(v.GetString("METRICS_TEXTFILE")),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the struct tags on cfg.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := validator.New().Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			names := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				names = append(names, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(names, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("QUERY_BASE_URL", "http://localhost:8080")
	v.SetDefault("QUERY_PATH", "/query")

	v.SetDefault("DOWNLOAD_DIR", "./downloads")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("METRICS_TEXTFILE", "")
}

// viper reports a missing explicit config file as an *fs.PathError rather
// than ConfigFileNotFoundError.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
