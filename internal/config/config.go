package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	SessionSecret  string `envconfig:"SESSION_SECRET" default:"dev-secret-change-in-production"`
	SnapshotDSN    string `envconfig:"SNAPSHOT_DSN" default:"sqlite://./data/snapshots.db"`
	SnapshotKeep   int    `envconfig:"SNAPSHOT_KEEP" default:"10"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	StyleTables    string `envconfig:"STYLE_TABLES"`

	AutosaveSchedule string        `envconfig:"AUTOSAVE_SCHEDULE" default:"@every 30s"`
	SweepSchedule    string        `envconfig:"SWEEP_SCHEDULE" default:"@every 1m"`
	IdleTimeout      time.Duration `envconfig:"IDLE_TIMEOUT" default:"30m"`

	ExportSettle     time.Duration `envconfig:"EXPORT_SETTLE" default:"150ms"`
	ExportPixelRatio float64       `envconfig:"EXPORT_PIXEL_RATIO" default:"2"`
	ExportAspect     string        `envconfig:"EXPORT_ASPECT" default:"3:4"`

	CoalesceWindow time.Duration `envconfig:"COALESCE_WINDOW" default:"80ms"`
	DragClamp      bool          `envconfig:"DRAG_CLAMP" default:"true"`
	HistoryLimit   int           `envconfig:"HISTORY_LIMIT" default:"50"`
	MaxUploadBytes int64         `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level parses LOG_LEVEL.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return l, nil
}
