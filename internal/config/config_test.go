package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calhub.toml")
	content := `
[google]
client_id = "gid"
client_secret = "gsecret"

[outlook]
client_id = "oid"
tenant_id = "tenant1"
redirect_uri = "calhub://auth"

[device]
app_calendar = "My Calendar"

[sync]
window_days = 90
provider_timeout = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gid", cfg.Google.ClientID)
	assert.Equal(t, "gsecret", cfg.Google.ClientSecret)
	assert.Equal(t, "oid", cfg.Outlook.ClientID)
	assert.Equal(t, "tenant1", cfg.Outlook.TenantID)
	assert.Equal(t, "My Calendar", cfg.Device.AppCalendar)
	assert.Equal(t, 90, cfg.Sync.WindowDays)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeoutDuration())

	// Unset values fall back to defaults.
	assert.NotEmpty(t, cfg.Device.StorePath)
	assert.Equal(t, "termux-sms-send", cfg.SMS.Command)
	assert.Equal(t, "*/15 * * * *", cfg.Sync.WatchSchedule)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "Calhub", cfg.Device.AppCalendar)
	assert.Equal(t, "common", cfg.Outlook.TenantID)
	assert.Equal(t, 365, cfg.Sync.WindowDays)
}

func TestLoadInvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "calhub.toml")
	require.NoError(t, os.WriteFile(path, []byte("[google\nbroken"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
