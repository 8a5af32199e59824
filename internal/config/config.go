package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/genricoloni/synthia/internal/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configName = "synthia_settings"
	envPrefix  = "SYNTHIA"
)

// Palette holds the display colors as ANSI SGR codes ("32") or hex ("#a0ff00")
type Palette struct {
	Main     string `mapstructure:"main_clr" yaml:"main_clr"`
	Dir      string `mapstructure:"dir_clr" yaml:"dir_clr"`
	File     string `mapstructure:"file_clr" yaml:"file_clr"`
	Playlist string `mapstructure:"m3u8_clr" yaml:"m3u8_clr"`
	Bg       string `mapstructure:"bg_clr" yaml:"bg_clr"`
	Misc     string `mapstructure:"misc_clr" yaml:"misc_clr"`
}

// DefaultPalette returns the stock colors
func DefaultPalette() Palette {
	return Palette{Main: "32", Dir: "31", File: "32", Playlist: "34", Bg: "40", Misc: "36"}
}

// MocpSettings configures the MOC server connection
type MocpSettings struct {
	Socket string `mapstructure:"socket"`
}

// MPDSettings configures the MPD connection.
// Socket takes precedence over Address/Port when set.
type MPDSettings struct {
	Address       string `mapstructure:"address"`
	Port          int    `mapstructure:"port"`
	Socket        string `mapstructure:"socket"`
	Password      string `mapstructure:"password"`
	UpdateOnStart bool   `mapstructure:"update_on_start"`
}

// Xmms2Settings configures the XMMS2 IPC socket
type Xmms2Settings struct {
	Address string `mapstructure:"address"`
}

// LibrarySettings controls which files appear in the browser
type LibrarySettings struct {
	Patterns []string `mapstructure:"patterns"`
}

// LogSettings controls the log file
type LogSettings struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// NotificationSettings controls desktop notifications
type NotificationSettings struct {
	Enabled bool `mapstructure:"enabled"`
}

// Config holds all application configuration
type Config struct {
	Backend        domain.BackendKind   `mapstructure:"backend"`
	UpdateRate     float64              `mapstructure:"update_rate"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	StartingFolder string               `mapstructure:"starting_folder"`
	SortMode       string               `mapstructure:"sort_mode"`
	SortReversed   bool                 `mapstructure:"sort_reversed"`
	VolumeStep     int                  `mapstructure:"volume_step"`
	SeekStep       int                  `mapstructure:"seek_step"`
	PageSize       int                  `mapstructure:"page_size"`
	Palette        Palette              `mapstructure:",squash"`
	Mocp           MocpSettings         `mapstructure:"mocp_settings"`
	MPD            MPDSettings          `mapstructure:"mpd_settings"`
	Xmms2          Xmms2Settings        `mapstructure:"xmms2_settings"`
	Library        LibrarySettings      `mapstructure:"library"`
	KeyBinds       map[string][]string  `mapstructure:"key_binds"`
	Notifications  NotificationSettings `mapstructure:"notifications"`
	Log            LogSettings          `mapstructure:"log"`

	v       *viper.Viper
	mu      sync.RWMutex
	palette Palette
}

// DefaultKeyBinds maps every bindable action to its default keys
var DefaultKeyBinds = map[string][]string{
	"play_pause":     {" "},
	"stop":           {"s"},
	"next":           {"n"},
	"prev":           {"b"},
	"volume_down":    {","},
	"volume_up":      {"."},
	"scroll_up":      {"up"},
	"scroll_down":    {"down"},
	"page_up":        {"pgup"},
	"page_down":      {"pgdown"},
	"top":            {"home"},
	"bottom":         {"end"},
	"seek_back":      {"left"},
	"seek_forward":   {"right"},
	"activate":       {"enter"},
	"cycle_sort":     {"m"},
	"toggle_reverse": {"M"},
	"update_library": {"u"},
	"quit":           {"q", "esc", "ctrl+c"},
}

// DefaultPatterns lists the audio and playlist files shown in the browser
var DefaultPatterns = []string{
	"*.aac", "*.flac", "*.mp3", "*.m3u8", "*.m4a", "*.ogg", "*.oga", "*.wav", "*.wma",
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()

	v.SetDefault("backend", "")
	v.SetDefault("update_rate", 1.0)
	v.SetDefault("timeout", 3*time.Second)
	v.SetDefault("starting_folder", home)
	v.SetDefault("sort_mode", "name")
	v.SetDefault("sort_reversed", false)
	v.SetDefault("volume_step", 5)
	v.SetDefault("seek_step", 2)
	v.SetDefault("page_size", 10)

	p := DefaultPalette()
	v.SetDefault("main_clr", p.Main)
	v.SetDefault("dir_clr", p.Dir)
	v.SetDefault("file_clr", p.File)
	v.SetDefault("m3u8_clr", p.Playlist)
	v.SetDefault("bg_clr", p.Bg)
	v.SetDefault("misc_clr", p.Misc)

	v.SetDefault("mocp_settings.socket", filepath.Join(home, ".moc", "socket2"))
	v.SetDefault("mpd_settings.address", "localhost")
	v.SetDefault("mpd_settings.port", 6600)
	v.SetDefault("mpd_settings.socket", "")
	v.SetDefault("mpd_settings.password", "")
	v.SetDefault("mpd_settings.update_on_start", true)
	v.SetDefault("xmms2_settings.address", "")

	v.SetDefault("library.patterns", DefaultPatterns)
	for action, keys := range DefaultKeyBinds {
		v.SetDefault("key_binds."+action, keys)
	}

	v.SetDefault("notifications.enabled", false)
	v.SetDefault("log.file", defaultLogFile(home))
	v.SetDefault("log.level", "info")
}

func defaultLogFile(home string) string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "synthia", "synthia.log")
}

// Load reads the configuration from path (or the standard locations when path is empty),
// the SYNTHIA_ environment and the given flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		for _, dir := range searchDirs() {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	if flags != nil {
		if f := flags.Lookup("backend"); f != nil {
			if err := v.BindPFlag("backend", f); err != nil {
				return nil, fmt.Errorf("binding backend flag: %w", err)
			}
		}
		if f := flags.Lookup("debug"); f != nil && f.Changed {
			v.Set("log.level", "debug")
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.expandPaths()
	cfg.palette = cfg.Palette

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "synthia"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "synthia"), filepath.Join(home, "synthia"))
	}
	return dirs
}

func (c *Config) expandPaths() {
	c.StartingFolder = expandHome(c.StartingFolder)
	c.Mocp.Socket = expandHome(c.Mocp.Socket)
	c.MPD.Socket = expandHome(c.MPD.Socket)
	c.Xmms2.Address = expandHome(c.Xmms2.Address)
	c.Log.File = expandHome(c.Log.File)
}

// expandHome expands environment variables and a leading ~
func expandHome(p string) string {
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[1:])
		}
	}
	return p
}

// Validate checks the values that would otherwise fail later at runtime
func (c *Config) Validate() error {
	switch c.Backend {
	case domain.BackendMocp, domain.BackendMPD, domain.BackendXmms2:
	case "":
		return fmt.Errorf("%w: no backend configured (mocp, mpd or xmms2)", domain.ErrUnknownBackend)
	default:
		return fmt.Errorf("%w: %q (mocp, mpd or xmms2)", domain.ErrUnknownBackend, c.Backend)
	}

	switch c.SortMode {
	case "name", "size", "time":
	default:
		return fmt.Errorf("invalid sort_mode %q (name, size or time)", c.SortMode)
	}

	if c.UpdateRate <= 0 {
		return fmt.Errorf("update_rate must be positive, got %v", c.UpdateRate)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	return nil
}

// PollInterval returns update_rate as a duration
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.UpdateRate * float64(time.Second))
}

// Xmms2Socket resolves the xmms2 IPC socket path: config, then XMMS_PATH, then
// the per-user default under /tmp.
func (c *Config) Xmms2Socket() string {
	addr := c.Xmms2.Address
	if addr == "" {
		addr = os.Getenv("XMMS_PATH")
	}
	if addr == "" {
		name := "unknown"
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
		addr = "/tmp/xmms-ipc-" + name
	}
	return strings.TrimPrefix(addr, "unix://")
}

// ConfigFile returns the file the configuration was read from, if any
func (c *Config) ConfigFile() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// CurrentPalette returns the palette, including hot-reloaded changes
func (c *Config) CurrentPalette() Palette {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.palette
}

// WatchPalette reloads the palette whenever the config file changes and calls fn with it.
// It does nothing when no config file was read.
func (c *Config) WatchPalette(fn func(Palette)) {
	if c.ConfigFile() == "" {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		var p Palette
		if err := c.v.Unmarshal(&p); err != nil {
			return
		}
		c.mu.Lock()
		c.palette = p
		c.mu.Unlock()
		if fn != nil {
			fn(p)
		}
	})
	c.v.WatchConfig()
}

// YAML renders the effective configuration
func (c *Config) YAML() ([]byte, error) {
	if c.v == nil {
		return nil, errors.New("config was not loaded")
	}
	return yaml.Marshal(c.v.AllSettings())
}
