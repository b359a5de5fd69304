package runtime

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nguyenkhacvan/uggo-new/ddragon"
)

// Config captures every knob shared across the uggo CLI and TUI entry points.
type Config struct {
	ConfigPath      string
	InstallDir      string
	LogPath         string
	DataDir         string
	DDragonEndpoint string
	BackupOnDelete  bool
	Debug           bool

	// Explicit marks file keys (see ConfigKeys) whose value was given on the
	// command line. Apply leaves those fields alone.
	Explicit map[string]bool
}

// DefaultConfig roots every path under the user config directory. Errors from
// os.UserConfigDir fall back to a relative .uggo directory so callers can
// still override manually. ConfigPath and LogPath are derived from DataDir by
// Normalize.
func DefaultConfig() Config {
	return Config{
		DataDir:         defaultBaseDir(),
		DDragonEndpoint: ddragon.DefaultEndpoint,
		BackupOnDelete:  true,
	}
}

func defaultBaseDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".uggo"
	}
	return filepath.Join(dir, "uggo")
}

// Normalize makes every path absolute and fills missing defaults so runtime
// initialization never has to re-check them.
func (c *Config) Normalize() error {
	base := defaultBaseDir()
	if c.DataDir == "" {
		c.DataDir = base
	}
	absData, err := filepath.Abs(c.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	c.DataDir = absData
	if c.ConfigPath == "" {
		c.ConfigPath = filepath.Join(c.DataDir, "config.yaml")
	}
	if !filepath.IsAbs(c.ConfigPath) {
		c.ConfigPath = filepath.Join(c.DataDir, c.ConfigPath)
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(c.DataDir, "uggo.log")
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(c.DataDir, c.LogPath)
	}
	if c.InstallDir != "" {
		absInstall, err := filepath.Abs(c.InstallDir)
		if err != nil {
			return fmt.Errorf("resolve install dir: %w", err)
		}
		c.InstallDir = absInstall
	}
	if c.DDragonEndpoint == "" {
		c.DDragonEndpoint = ddragon.DefaultEndpoint
	}
	return nil
}

// BackupDBPath is where rune page backups are kept.
func (c Config) BackupDBPath() string {
	return filepath.Join(c.DataDir, "pages.db")
}

// Apply fills fields not given on the command line from the config file.
func (c *Config) Apply(file FileConfig) {
	if !c.Explicit[KeyInstallDir] && c.InstallDir == "" && file.InstallDir != "" {
		c.InstallDir = file.InstallDir
	}
	if !c.Explicit[KeyDDragonEndpoint] && file.DDragonEndpoint != "" {
		c.DDragonEndpoint = file.DDragonEndpoint
	}
	if !c.Explicit[KeyBackupOnDelete] && file.BackupOnDelete != nil {
		c.BackupOnDelete = *file.BackupOnDelete
	}
	if !c.Explicit[KeyDebug] && file.Debug {
		c.Debug = true
	}
}

// MarkExplicit records that key was set on the command line.
func (c *Config) MarkExplicit(key string) {
	if c.Explicit == nil {
		c.Explicit = map[string]bool{}
	}
	c.Explicit[key] = true
}

// Keys of config.yaml.
const (
	KeyInstallDir      = "install_dir"
	KeyDDragonEndpoint = "ddragon_endpoint"
	KeyBackupOnDelete  = "backup_on_delete"
	KeyDebug           = "debug"
)

// ConfigKeys lists the keys accepted by FileConfig.Get and FileConfig.Set.
func ConfigKeys() []string {
	keys := []string{KeyInstallDir, KeyDDragonEndpoint, KeyBackupOnDelete, KeyDebug}
	sort.Strings(keys)
	return keys
}

// UnknownKeyError is returned for keys FileConfig does not carry.
type UnknownKeyError struct {
	Key string
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("unknown config key %q (known: %s)", e.Key, strings.Join(ConfigKeys(), ", "))
}

// FileConfig is the persisted part of the configuration.
type FileConfig struct {
	InstallDir      string `yaml:"install_dir,omitempty"`
	DDragonEndpoint string `yaml:"ddragon_endpoint,omitempty"`
	BackupOnDelete  *bool  `yaml:"backup_on_delete,omitempty"`
	Debug           bool   `yaml:"debug,omitempty"`
}

// LoadFileConfig loads the config file from disk. Callers treat
// os.ErrNotExist as an empty configuration.
func LoadFileConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveFileConfig persists cfg.
func SaveFileConfig(path string, cfg FileConfig) error {
	if path == "" {
		return fmt.Errorf("config path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Get renders the value stored under key. The second result is false when the
// key is valid but unset.
func (f FileConfig) Get(key string) (string, bool, error) {
	switch key {
	case KeyInstallDir:
		return f.InstallDir, f.InstallDir != "", nil
	case KeyDDragonEndpoint:
		return f.DDragonEndpoint, f.DDragonEndpoint != "", nil
	case KeyBackupOnDelete:
		if f.BackupOnDelete == nil {
			return "", false, nil
		}
		return strconv.FormatBool(*f.BackupOnDelete), true, nil
	case KeyDebug:
		return strconv.FormatBool(f.Debug), true, nil
	default:
		return "", false, &UnknownKeyError{Key: key}
	}
}

// Set parses raw according to the type of key and stores it.
func (f *FileConfig) Set(key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch key {
	case KeyInstallDir:
		f.InstallDir = raw
	case KeyDDragonEndpoint:
		if raw == "" {
			f.DDragonEndpoint = ""
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s: %q is not an http(s) URL", key, raw)
		}
		f.DDragonEndpoint = strings.TrimRight(raw, "/")
	case KeyBackupOnDelete:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		f.BackupOnDelete = &v
	case KeyDebug:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		f.Debug = v
	default:
		return &UnknownKeyError{Key: key}
	}
	return nil
}
