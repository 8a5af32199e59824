package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/genricoloni/synthia/internal/domain"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		file        string
		expectError bool
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "Success - Defaults fill missing keys",
			file: "synthia_settings.json",
			body: `{"backend": "mpd"}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, domain.BackendMPD, c.Backend)
				assert.Equal(t, time.Second, c.PollInterval())
				assert.Equal(t, 3*time.Second, c.Timeout)
				assert.Equal(t, "name", c.SortMode)
				assert.Equal(t, 5, c.VolumeStep)
				assert.Equal(t, 2, c.SeekStep)
				assert.Equal(t, "localhost", c.MPD.Address)
				assert.Equal(t, 6600, c.MPD.Port)
				assert.True(t, c.MPD.UpdateOnStart)
				assert.Equal(t, "32", c.Palette.Main)
				assert.Equal(t, "34", c.Palette.Playlist)
				assert.Equal(t, []string{"q", "esc", "ctrl+c"}, c.KeyBinds["quit"])
				assert.Contains(t, c.Library.Patterns, "*.m3u8")
			},
		},
		{
			name: "Success - Legacy JSON layout",
			file: "synthia_settings.json",
			body: `{
				"backend": "mocp",
				"update_rate": 0.5,
				"starting_folder": "/srv/music",
				"dir_clr": "35",
				"mocp_settings": {"socket": "/tmp/moc/socket2"},
				"key_binds": {"stop": ["x"]}
			}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, domain.BackendMocp, c.Backend)
				assert.Equal(t, 500*time.Millisecond, c.PollInterval())
				assert.Equal(t, "/srv/music", c.StartingFolder)
				assert.Equal(t, "35", c.Palette.Dir)
				assert.Equal(t, "31", DefaultPalette().Dir)
				assert.Equal(t, "/tmp/moc/socket2", c.Mocp.Socket)
				assert.Equal(t, []string{"x"}, c.KeyBinds["stop"])
				assert.Equal(t, []string{"n"}, c.KeyBinds["next"])
			},
		},
		{
			name: "Success - YAML file",
			file: "synthia.yaml",
			body: "backend: xmms2\nxmms2_settings:\n  address: unix:///run/xmms\nsort_mode: time\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, domain.BackendXmms2, c.Backend)
				assert.Equal(t, "/run/xmms", c.Xmms2Socket())
				assert.Equal(t, "time", c.SortMode)
			},
		},
		{
			name:        "Error - Missing backend",
			file:        "synthia_settings.json",
			body:        `{}`,
			expectError: true,
		},
		{
			name:        "Error - Unknown backend",
			file:        "synthia_settings.json",
			body:        `{"backend": "winamp"}`,
			expectError: true,
		},
		{
			name:        "Error - Invalid sort mode",
			file:        "synthia_settings.json",
			body:        `{"backend": "mpd", "sort_mode": "random"}`,
			expectError: true,
		},
		{
			name:        "Error - Non positive update rate",
			file:        "synthia_settings.json",
			body:        `{"backend": "mpd", "update_rate": 0}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)

			cfg, err := Load(path, nil)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, path, cfg.ConfigFile())
			tt.check(t, cfg)
		})
	}
}

func TestLoad_UnknownBackendIsSentinel(t *testing.T) {
	path := writeConfig(t, "synthia_settings.json", `{"backend": "winamp"}`)

	_, err := Load(path, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownBackend)
}

func TestLoad_EnvAndFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, "synthia_settings.json", `{"backend": "mocp", "mpd_settings": {"port": 6601}}`)

	t.Setenv("SYNTHIA_MPD_SETTINGS_PORT", "6700")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("backend", "", "")
	flags.Bool("debug", false, "")
	require.NoError(t, flags.Parse([]string{"--backend", "mpd", "--debug"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, domain.BackendMPD, cfg.Backend)
	assert.Equal(t, 6700, cfg.MPD.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"), nil)
	assert.Error(t, err)
}

func TestXmms2Socket(t *testing.T) {
	tests := []struct {
		name    string
		address string
		env     string
		want    string
	}{
		{"Success - Config wins", "/tmp/custom", "unix:///tmp/env", "/tmp/custom"},
		{"Success - XMMS_PATH with scheme", "", "unix:///tmp/env", "/tmp/env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XMMS_PATH", tt.env)
			c := &Config{Xmms2: Xmms2Settings{Address: tt.address}}
			assert.Equal(t, tt.want, c.Xmms2Socket())
		})
	}

	t.Run("Success - Per user default", func(t *testing.T) {
		t.Setenv("XMMS_PATH", "")
		c := &Config{}
		assert.Contains(t, c.Xmms2Socket(), "/tmp/xmms-ipc-")
	})
}

func TestYAMLDump(t *testing.T) {
	path := writeConfig(t, "synthia_settings.json", `{"backend": "mpd"}`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	out, err := cfg.YAML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "backend: mpd")
	assert.Contains(t, string(out), "mpd_settings:")
}

func TestCurrentPalette(t *testing.T) {
	path := writeConfig(t, "synthia_settings.json", `{"backend": "mpd", "bg_clr": "44"}`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "44", cfg.CurrentPalette().Bg)
}
