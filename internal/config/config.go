// Package config persists the user's display settings for netspeed.
// It uses Viper to read the JSON file and environment overrides and to write
// the file back on every change.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vesaa/netspeed/internal/models"
)

const (
	keyMode            = "mode"
	keyFontMode        = "font_mode"
	keyRefreshInterval = "refresh_interval"

	envPrefix = "NETSPEED"

	maxFontMode        = 4
	maxRefreshInterval = 60
	fontModeCount      = maxFontMode + 1
)

var (
	// ErrOutOfRange is returned by setters given a value outside its valid range.
	ErrOutOfRange = errors.New("value out of range")
	// ErrPersist is returned when the new value could not be written to disk.
	// The in-memory value has been applied regardless.
	ErrPersist = errors.New("saving config")
)

// Config holds the persisted display settings.
type Config struct {
	Mode models.DisplayMode `mapstructure:"mode" json:"mode"`
	// FontMode picks one of five label styles (0..4).
	FontMode int `mapstructure:"font_mode" json:"font_mode"`
	// RefreshInterval is the sampling period in seconds (1..60).
	RefreshInterval int `mapstructure:"refresh_interval" json:"refresh_interval"`
}

// Default returns the settings used when nothing valid is stored.
func Default() Config {
	return Config{
		Mode:            models.ModeTotalBits,
		FontMode:        0,
		RefreshInterval: 3,
	}
}

// ValidMode reports whether m is an accepted display mode.
func ValidMode(m int) bool { return m >= 0 && m <= int(models.ModeTotalDownloaded) }

// ValidFontMode reports whether f is an accepted font mode.
func ValidFontMode(f int) bool { return f >= 0 && f <= maxFontMode }

// ValidRefreshInterval reports whether seconds is an accepted interval.
func ValidRefreshInterval(seconds int) bool { return seconds > 0 && seconds <= maxRefreshInterval }

// DefaultPath returns $XDG_CONFIG_HOME/netspeed/config.json (or the platform equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.TempDir(), ".config")
	}
	return filepath.Join(dir, "netspeed", "config.json")
}

// Store owns the in-memory config and its file. All mutations are written
// through synchronously.
type Store struct {
	mu   sync.Mutex
	path string
	cfg  Config
	log  *zap.SugaredLogger
}

// Open loads the config at path (DefaultPath when empty). It never fails:
// missing or corrupt files are replaced with defaults.
func Open(path string, logger *zap.SugaredLogger) *Store {
	if path == "" {
		path = DefaultPath()
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Store{path: path, log: logger.Named("config")}
	s.Load()
	return s
}

// Load re-reads the file. Fields holding invalid values fall back to their
// default individually; an absent or unparsable file is rewritten with defaults.
// The file is JSON whatever its extension. NETSPEED_* variables override it.
func (s *Store) Load() Config {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := viper.New()
	file.SetConfigFile(s.path)
	file.SetConfigType("json")

	env := viper.New()
	env.SetEnvPrefix(envPrefix)
	env.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	env.AutomaticEnv()

	def := Default()
	if err := file.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warnw("failed to load config, using defaults", "path", s.path, "error", err)
		}
		s.cfg = resolve(nil, env, def)
		if err := s.save(def); err != nil {
			s.log.Errorw("failed to save config", "path", s.path, "error", err)
		}
		return s.cfg
	}

	s.cfg = resolve(file, env, def)
	s.log.Debugw("config loaded", "path", s.path, "mode", s.cfg.Mode,
		"font_mode", s.cfg.FontMode, "refresh_interval", s.cfg.RefreshInterval)
	return s.cfg
}

// resolve picks each field from env, then file, then def. file may be nil.
func resolve(file, env *viper.Viper, def Config) Config {
	return Config{
		Mode:            models.DisplayMode(field(file, env, keyMode, int(def.Mode), ValidMode)),
		FontMode:        field(file, env, keyFontMode, def.FontMode, ValidFontMode),
		RefreshInterval: field(file, env, keyRefreshInterval, def.RefreshInterval, ValidRefreshInterval),
	}
}

// field returns the first valid value for key: an integer environment
// variable, then a JSON number in the file, then def. Strings in the file are
// not numbers and fall back.
func field(file, env *viper.Viper, key string, def int, valid func(int) bool) int {
	if raw, ok := env.Get(key).(string); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && valid(n) {
			return n
		}
	}
	if file == nil {
		return def
	}
	n, ok := toInt(file.Get(key))
	if !ok || !valid(n) {
		return def
	}
	return n
}

func toInt(raw any) (int, bool) {
	switch x := raw.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return int(x), true
	default:
		return 0, false
	}
}

// save writes cfg as JSON to the store's path. Viper picks the encoding from
// the file extension, so it writes a ".json" sibling that is then renamed
// over the real path. Callers hold s.mu.
func (s *Store) save(cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("json")
	v.Set(keyMode, int(cfg.Mode))
	v.Set(keyFontMode, cfg.FontMode)
	v.Set(keyRefreshInterval, cfg.RefreshInterval)

	tmp := s.path + ".tmp.json"
	if err := v.WriteConfigAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// update applies fn to the config and persists the result.
func (s *Store) update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn(&s.cfg)
	if err := s.save(s.cfg); err != nil {
		s.log.Errorw("failed to save config", "path", s.path, "error", err)
		return fmt.Errorf("%w to %s: %v", ErrPersist, s.path, err)
	}
	return nil
}

// Config returns a copy of the current settings.
func (s *Store) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Mode returns the stored display mode.
func (s *Store) Mode() models.DisplayMode { return s.Config().Mode }

// FontMode returns the stored font mode.
func (s *Store) FontMode() int { return s.Config().FontMode }

// RefreshInterval returns the stored interval in seconds.
func (s *Store) RefreshInterval() int { return s.Config().RefreshInterval }

// Path returns the config file location.
func (s *Store) Path() string { return s.path }

// SetMode stores a new display mode.
func (s *Store) SetMode(m models.DisplayMode) error {
	if !ValidMode(int(m)) {
		return fmt.Errorf("mode %d: %w (0-4)", m, ErrOutOfRange)
	}
	return s.update(func(c *Config) { c.Mode = m })
}

// SetFontMode stores a new font mode.
func (s *Store) SetFontMode(f int) error {
	if !ValidFontMode(f) {
		return fmt.Errorf("font mode %d: %w (0-4)", f, ErrOutOfRange)
	}
	return s.update(func(c *Config) { c.FontMode = f })
}

// SetRefreshInterval stores a new interval in seconds.
func (s *Store) SetRefreshInterval(seconds int) error {
	if !ValidRefreshInterval(seconds) {
		return fmt.Errorf("refresh interval %d: %w (1-60)", seconds, ErrOutOfRange)
	}
	return s.update(func(c *Config) { c.RefreshInterval = seconds })
}

// CycleMode advances to the next display mode and persists it. The new mode
// is returned even when saving failed.
func (s *Store) CycleMode() (models.DisplayMode, error) {
	var next models.DisplayMode
	err := s.update(func(c *Config) {
		next = c.Mode.Next()
		c.Mode = next
	})
	return next, err
}

// CycleFontMode advances to the next font mode and persists it.
func (s *Store) CycleFontMode() (int, error) {
	var next int
	err := s.update(func(c *Config) {
		next = (c.FontMode + 1) % fontModeCount
		c.FontMode = next
	})
	return next, err
}

// ResetToDefaults restores and persists the default settings.
func (s *Store) ResetToDefaults() error {
	return s.update(func(c *Config) { *c = Default() })
}
