package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/campaign-availability/internal/application"
	"github.com/example/campaign-availability/internal/builder"
	"github.com/example/campaign-availability/internal/grid"
	"github.com/example/campaign-availability/internal/persistence/sqlite/migration"
	"github.com/example/campaign-availability/internal/slots"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names an optional YAML file whose values sit beneath the
// environment.
const EnvConfigFile = "AVAILABILITY_CONFIG_FILE"

// Config captures environment driven configuration values for the availability service.
type Config struct {
	HTTPPort         int
	SQLitePath       string
	DisplayOffset    string
	Location         *time.Location
	WeekStart        time.Weekday
	DefaultStart     slots.TimeOfDay
	DefaultEnd       slots.TimeOfDay
	DefaultInterval  slots.Interval
	IntervalsEnabled bool
	SessionTTL       time.Duration
	MaxSessions      int
	SweepSchedule    string
	LogLevel         slog.Level
}

// fileConfig mirrors the environment keys. Values stay strings so that file
// and environment go through the same parsing.
type fileConfig struct {
	HTTPPort         string `yaml:"http_port"`
	SQLitePath       string `yaml:"sqlite_path"`
	DisplayOffset    string `yaml:"display_offset"`
	WeekStart        string `yaml:"week_start"`
	DefaultStart     string `yaml:"default_start"`
	DefaultEnd       string `yaml:"default_end"`
	IntervalHours    string `yaml:"interval_hours"`
	IntervalsEnabled string `yaml:"intervals_enabled"`
	SessionTTL       string `yaml:"session_ttl"`
	MaxSessions      string `yaml:"max_sessions"`
	SweepSchedule    string `yaml:"sweep_schedule"`
	LogLevel         string `yaml:"log_level"`
}

func (f fileConfig) values() map[string]string {
	return map[string]string{
		"AVAILABILITY_HTTP_PORT":         f.HTTPPort,
		"AVAILABILITY_SQLITE_PATH":       f.SQLitePath,
		"AVAILABILITY_DISPLAY_OFFSET":    f.DisplayOffset,
		"AVAILABILITY_WEEK_START":        f.WeekStart,
		"AVAILABILITY_DEFAULT_START":     f.DefaultStart,
		"AVAILABILITY_DEFAULT_END":       f.DefaultEnd,
		"AVAILABILITY_INTERVAL_HOURS":    f.IntervalHours,
		"AVAILABILITY_INTERVALS_ENABLED": f.IntervalsEnabled,
		"AVAILABILITY_SESSION_TTL":       f.SessionTTL,
		"AVAILABILITY_MAX_SESSIONS":      f.MaxSessions,
		"AVAILABILITY_SWEEP_SCHEDULE":    f.SweepSchedule,
		"AVAILABILITY_LOG_LEVEL":         f.LogLevel,
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:         8080,
		SQLitePath:       "data/availability.db",
		DisplayOffset:    "+09:00",
		Location:         time.FixedZone("+09:00", 9*60*60),
		WeekStart:        time.Monday,
		DefaultStart:     slots.At(9, 0),
		DefaultEnd:       slots.At(17, 0),
		DefaultInterval:  slots.DefaultInterval,
		IntervalsEnabled: true,
		SessionTTL:       application.DefaultSessionTTL,
		MaxSessions:      application.DefaultMaxSessions,
		SweepSchedule:    "@every 5m",
		LogLevel:         slog.LevelInfo,
	}
}

// Load parses configuration values from the current process environment.
//
// When AVAILABILITY_CONFIG_FILE names a YAML file its values are read first
// and environment variables override them. Invalid entries are collected
// and reported together with localized messages.
func Load() (Config, error) {
	file := map[string]string{}
	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません: %s: %w", path, err)
		}
		file = fc.values()
	}
	lookup := func(key string) string {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
		return strings.TrimSpace(file[key])
	}

	cfg := Default()
	invalid := make([]string, 0, 2)

	if portValue := lookup("AVAILABILITY_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "AVAILABILITY_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if path := lookup("AVAILABILITY_SQLITE_PATH"); path != "" {
		cfg.SQLitePath = path
	}

	if offset := lookup("AVAILABILITY_DISPLAY_OFFSET"); offset != "" {
		loc, err := parseOffset(offset)
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_DISPLAY_OFFSET")
		} else {
			cfg.DisplayOffset = offset
			cfg.Location = loc
		}
	}

	if weekStart := lookup("AVAILABILITY_WEEK_START"); weekStart != "" {
		day, err := grid.ParseWeekStart(weekStart)
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_WEEK_START")
		} else {
			cfg.WeekStart = day
		}
	}

	if start := lookup("AVAILABILITY_DEFAULT_START"); start != "" {
		t, err := slots.ParseTimeOfDay(start)
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_DEFAULT_START")
		} else {
			cfg.DefaultStart = t
		}
	}

	if end := lookup("AVAILABILITY_DEFAULT_END"); end != "" {
		t, err := slots.ParseTimeOfDay(end)
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_DEFAULT_END")
		} else {
			cfg.DefaultEnd = t
		}
	}
	if cfg.DefaultEnd <= cfg.DefaultStart && !containsKey(invalid, "AVAILABILITY_DEFAULT_END") {
		invalid = append(invalid, "AVAILABILITY_DEFAULT_END")
	}

	if hoursValue := lookup("AVAILABILITY_INTERVAL_HOURS"); hoursValue != "" {
		hours, err := strconv.ParseFloat(hoursValue, 64)
		var iv slots.Interval
		if err == nil {
			iv, err = slots.IntervalFromHours(hours)
		}
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_INTERVAL_HOURS")
		} else {
			cfg.DefaultInterval = iv
		}
	}

	if enabledValue := lookup("AVAILABILITY_INTERVALS_ENABLED"); enabledValue != "" {
		enabled, err := strconv.ParseBool(enabledValue)
		if err != nil {
			invalid = append(invalid, "AVAILABILITY_INTERVALS_ENABLED")
		} else {
			cfg.IntervalsEnabled = enabled
		}
	}

	if ttlValue := lookup("AVAILABILITY_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "AVAILABILITY_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if maxValue := lookup("AVAILABILITY_MAX_SESSIONS"); maxValue != "" {
		maxSessions, err := strconv.Atoi(maxValue)
		if err != nil || maxSessions <= 0 {
			invalid = append(invalid, "AVAILABILITY_MAX_SESSIONS")
		} else {
			cfg.MaxSessions = maxSessions
		}
	}

	if schedule := lookup("AVAILABILITY_SWEEP_SCHEDULE"); schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			invalid = append(invalid, "AVAILABILITY_SWEEP_SCHEDULE")
		} else {
			cfg.SweepSchedule = schedule
		}
	}

	if levelValue := lookup("AVAILABILITY_LOG_LEVEL"); levelValue != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "AVAILABILITY_LOG_LEVEL")
		} else {
			cfg.LogLevel = level
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// BuilderDefaults returns the initial slot options of new builder sessions.
func (c Config) BuilderDefaults() builder.Options {
	return builder.Options{
		IntervalsEnabled: c.IntervalsEnabled,
		Interval:         c.DefaultInterval,
		Start:            c.DefaultStart,
		End:              c.DefaultEnd,
	}
}

// BuilderConfig returns the session settings of the builder service.
func (c Config) BuilderConfig() application.BuilderConfig {
	return application.BuilderConfig{
		Defaults:    c.BuilderDefaults(),
		WeekStart:   c.WeekStart,
		Location:    c.Location,
		SessionTTL:  c.SessionTTL,
		MaxSessions: c.MaxSessions,
	}
}

// SQLiteConfig returns the storage settings for the configured database path.
func (c Config) SQLiteConfig() migration.SQLiteConfig {
	return migration.DefaultSQLiteConfig(c.SQLitePath)
}

func readFile(path string) (fileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileConfig{}, err
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return fileConfig{}, err
	}
	return fc, nil
}

// parseOffset accepts "Z" or a "+HH:MM" / "-HH:MM" UTC offset.
func parseOffset(value string) (*time.Location, error) {
	if value == "Z" || value == "UTC" {
		return time.UTC, nil
	}
	t, err := time.Parse("-07:00", value)
	if err != nil {
		return nil, err
	}
	_, seconds := t.Zone()
	return time.FixedZone(value, seconds), nil
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
