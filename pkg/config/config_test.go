package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tanpawarit/yuchi/pkg/yuchierr"
)

type testEnv struct {
	Name    string        `split_words:"true" required:"true"`
	Timeout time.Duration `split_words:"true" default:"5s"`
	Retries int           `split_words:"true" default:"2"`
}

func TestLoadFromEnvFile(t *testing.T) {
	t.Setenv("YTEST_NAME", "")
	os.Unsetenv("YTEST_NAME")
	os.Unsetenv("YTEST_RETRIES")
	t.Cleanup(func() {
		os.Unsetenv("YTEST_NAME")
		os.Unsetenv("YTEST_RETRIES")
	})

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("YTEST_NAME=ariwa\nYTEST_RETRIES=4\n"), 0o600))

	conf, err := Load[testEnv]("YTEST", path)
	require.NoError(t, err)
	require.Equal(t, "ariwa", conf.Name)
	require.Equal(t, 4, conf.Retries)
	require.Equal(t, 5*time.Second, conf.Timeout)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	t.Setenv("YTEST_NAME", "from-env")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("YTEST_NAME=from-file\n"), 0o600))

	conf, err := Load[testEnv]("YTEST", path)
	require.NoError(t, err)
	require.Equal(t, "from-env", conf.Name)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load[testEnv]("YTEST", filepath.Join(t.TempDir(), "nope.env"))
	require.Error(t, err)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("YTEST_NAME", "")
	os.Unsetenv("YTEST_NAME")
	t.Chdir(t.TempDir())

	_, err := Load[testEnv]("YTEST", "")
	require.Error(t, err)
}

func TestMustLoadPanics(t *testing.T) {
	require.Panics(t, func() {
		MustLoad[testEnv]("YTEST", filepath.Join(t.TempDir(), "nope.env"))
	})
}

func TestSettingsFileMissingIsEmpty(t *testing.T) {
	t.Parallel()

	f := NewSettingsFile(filepath.Join(t.TempDir(), "yuchi", "config.toml"))
	s, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, Settings{}, s)
	require.False(t, s.HasCredentials())
}

func TestSettingsFileRoundTrip(t *testing.T) {
	t.Parallel()

	f := NewSettingsFile(filepath.Join(t.TempDir(), "yuchi", "config.toml"))
	want := Settings{
		APIKey:    "sk-123",
		Username:  "ariwa",
		UserID:    "u-1",
		ChannelID: "c-1",
	}
	require.NoError(t, f.Save(want))

	info, err := os.Stat(f.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(settingsFileMode), info.Mode().Perm())

	got, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.True(t, got.HasCredentials())
}

func TestSettingsFileSaveOverwrites(t *testing.T) {
	t.Parallel()

	f := NewSettingsFile(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, f.Save(Settings{APIKey: "old", UserID: "u"}))
	require.NoError(t, f.Save(Settings{}))

	got, err := f.Load()
	require.NoError(t, err)
	require.Equal(t, Settings{}, got)
}

func TestSettingsFileLoadCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("api_key = [unterminated"), 0o600))

	_, err := NewSettingsFile(path).Load()
	require.Error(t, err)
	require.True(t, yuchierr.IsCategory(err, yuchierr.CategoryConfig))
	require.Contains(t, err.Error(), "Config Error: Failed to load config: ")
}

func TestSettingsFileSaveFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := NewSettingsFile(filepath.Join(blocker, "config.toml")).Save(Settings{})
	require.Error(t, err)
	require.True(t, yuchierr.IsCategory(err, yuchierr.CategoryConfig))
	require.Contains(t, err.Error(), "Config Error: Failed to save config: ")
}

func TestSettingsModel(t *testing.T) {
	t.Parallel()

	require.Equal(t, "shapesinc/ariwa", Settings{}.Model("shapesinc/ariwa"))
	require.Equal(t, "shapesinc/tenshi", Settings{Username: "tenshi"}.Model("shapesinc/ariwa"))
}
