package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adamavenir/threadchat/internal/types"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix        = "THREADCHAT_"
	globalConfigName = ".threadchat.toml"
)

// Settings holds user-facing configuration.
type Settings struct {
	User    UserSettings    `koanf:"user" json:"user"`
	Storage StorageSettings `koanf:"storage" json:"storage"`
	View    ViewSettings    `koanf:"view" json:"view"`
	Watch   WatchSettings   `koanf:"watch" json:"watch"`
	Debug   bool            `koanf:"debug" json:"debug"`

	// Source is the config file that was loaded, if any.
	Source string `koanf:"-" json:"source,omitempty"`
}

// UserSettings is the static author identity stamped on new messages and reactions.
type UserSettings struct {
	Name string `koanf:"name" json:"name"`
	ID   string `koanf:"id" json:"id"`
}

type StorageSettings struct {
	Location types.StorageLocation `koanf:"location" json:"location"`
}

type ViewSettings struct {
	AutoShow         bool `koanf:"auto_show" json:"auto_show"`
	HideEmpty        bool `koanf:"hide_empty" json:"hide_empty"`
	ShowChildThreads bool `koanf:"show_child_threads" json:"show_child_threads"`
}

type WatchSettings struct {
	PairWindowMS int `koanf:"pair_window_ms" json:"pair_window_ms"`
}

// PairWindow is how long a rename source waits for its destination event.
func (w WatchSettings) PairWindow() time.Duration {
	return time.Duration(w.PairWindowMS) * time.Millisecond
}

func defaultSettings() map[string]any {
	return map[string]any{
		"user.name":               "User",
		"user.id":                 "user-1",
		"storage.location":        string(types.StoragePlugin),
		"view.auto_show":          true,
		"view.hide_empty":         false,
		"view.show_child_threads": true,
		"watch.pair_window_ms":    250,
		"debug":                   false,
	}
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() Settings {
	return Settings{
		User:    UserSettings{Name: "User", ID: "user-1"},
		Storage: StorageSettings{Location: types.StoragePlugin},
		View:    ViewSettings{AutoShow: true, ShowChildThreads: true},
		Watch:   WatchSettings{PairWindowMS: 250},
	}
}

// LoadSettings layers defaults, an optional TOML file and THREADCHAT_*
// environment variables. configPath, when set, must exist. Otherwise the vault's
// .threadchat.toml and then $HOME/.threadchat.toml are tried.
func LoadSettings(configPath string, vault *Vault) (Settings, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultSettings(), "."), nil); err != nil {
		return Settings{}, fmt.Errorf("load default settings: %w", err)
	}

	path, err := resolveConfigPath(configPath, vault)
	if err != nil {
		return Settings{}, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return Settings{}, fmt.Errorf("error loading config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Settings{}, fmt.Errorf("load environment settings: %w", err)
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return Settings{}, fmt.Errorf("error unmarshalling config: %w", err)
	}
	settings.Source = path

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// envKey maps THREADCHAT_VIEW__HIDE_EMPTY to view.hide_empty.
func envKey(name string) string {
	key := strings.TrimPrefix(name, envPrefix)
	return strings.ToLower(strings.ReplaceAll(key, "__", "."))
}

func resolveConfigPath(configPath string, vault *Vault) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", configPath, err)
		}
		return configPath, nil
	}

	var candidates []string
	if vault != nil {
		candidates = append(candidates, vault.ConfigPath())
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, globalConfigName))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// Validate checks settings values.
func (s Settings) Validate() error {
	switch s.Storage.Location {
	case types.StoragePlugin, types.StorageVault:
	default:
		return fmt.Errorf("invalid storage.location %q (use plugin or vault)", s.Storage.Location)
	}
	if strings.TrimSpace(s.User.ID) == "" {
		return fmt.Errorf("user.id is required")
	}
	if strings.ContainsAny(s.User.ID, " \t\r\n") {
		return fmt.Errorf("user.id %q must not contain spaces", s.User.ID)
	}
	if s.Watch.PairWindowMS < 0 {
		return fmt.Errorf("watch.pair_window_ms must not be negative")
	}
	return nil
}

const sampleSettings = `# threadchat settings

debug = false

[user]
name = "User"
id = "user-1"

[storage]
# plugin: .obsidian/plugins/obsidian-threaded-chat/chat-data.json
# vault:  .chat-data.json at the vault root
location = "plugin"

[view]
auto_show = true
hide_empty = false
show_child_threads = true

[watch]
pair_window_ms = 250
`

// InitSettingsFile writes a commented settings file to path.
func InitSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists at %s", path)
	}
	return os.WriteFile(path, []byte(sampleSettings), 0o644)
}
