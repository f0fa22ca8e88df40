package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

const (
	appDirName       = "yuchi"
	settingsFileName = "config.toml"
	settingsFileMode = 0o600
)

// Settings is the state persisted between runs: credentials and the
// identifiers Shapes uses to keep a conversation together.
type Settings struct {
	APIKey        string `mapstructure:"api_key"`
	AppID         string `mapstructure:"app_id"`
	UserAuthToken string `mapstructure:"user_auth_token"`
	Username      string `mapstructure:"username"`
	UserID        string `mapstructure:"user_id"`
	ChannelID     string `mapstructure:"channel_id"`
}

func (s Settings) HasCredentials() bool {
	return strings.TrimSpace(s.UserAuthToken) != "" || strings.TrimSpace(s.APIKey) != ""
}

// Model returns the shape the user picked with --shape, or defaultModel.
func (s Settings) Model(defaultModel string) string {
	if u := strings.TrimSpace(s.Username); u != "" {
		return "shapesinc/" + u
	}
	return defaultModel
}

func (s Settings) toMap() map[string]any {
	return map[string]any{
		"api_key":         s.APIKey,
		"app_id":          s.AppID,
		"user_auth_token": s.UserAuthToken,
		"username":        s.Username,
		"user_id":         s.UserID,
		"channel_id":      s.ChannelID,
	}
}

// SettingsFile reads and writes Settings as TOML.
type SettingsFile struct {
	path string
}

func NewSettingsFile(path string) *SettingsFile {
	return &SettingsFile{path: path}
}

// DefaultSettingsPath is $XDG_CONFIG_HOME/yuchi/config.toml or the platform
// equivalent.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDirName, settingsFileName), nil
}

func (f *SettingsFile) Path() string {
	return f.path
}

// Dir is the directory holding the settings file. Other per-user state lives
// next to it.
func (f *SettingsFile) Dir() string {
	return filepath.Dir(f.path)
}

// Load returns zero Settings when the file does not exist yet.
func (f *SettingsFile) Load() (Settings, error) {
	if _, err := os.Stat(f.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, yuchierr.Configf("Failed to load config: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(f.path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Settings{}, yuchierr.Configf("Failed to load config: %v", err)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, yuchierr.Configf("Failed to load config: %v", err)
	}
	return s, nil
}

func (f *SettingsFile) Save(s Settings) error {
	if err := f.save(s); err != nil {
		return yuchierr.Configf("Failed to save config: %v", err)
	}
	return nil
}

func (f *SettingsFile) save(s Settings) error {
	if strings.TrimSpace(f.path) == "" {
		return errors.New("settings path is empty")
	}
	if err := os.MkdirAll(f.Dir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	for k, val := range s.toMap() {
		v.Set(k, val)
	}
	if err := v.WriteConfigAs(f.path); err != nil {
		return err
	}
	return os.Chmod(f.path, settingsFileMode)
}
