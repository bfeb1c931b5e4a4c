package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalConfig = `
telegram:
  token: "123:abc"
  admin_ids: [42]
provider:
  base_url: "https://panel.example"
  api_id: "id"
  api_key: "key"
shop:
  support_handle: "@helper"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "123:abc", cfg.Core.Telegram.Token)
	require.True(t, cfg.Core.Telegram.IsAdmin(42))
	require.False(t, cfg.Core.Telegram.IsAdmin(7))

	require.Equal(t, int64(10), cfg.Shop.MarginPercent)
	require.Equal(t, int64(10000), cfg.Shop.MinDeposit)
	require.Equal(t, "Rp", cfg.Shop.CurrencyLabel)
	// Leading @ is stripped so messages can add their own.
	require.Equal(t, "helper", cfg.Shop.SupportHandle)
}

func TestLoadConfigRequiresProviderCredentials(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
provider:
  base_url: "https://panel.example"
`))
	require.Error(t, err)
}

func TestLoadConfigRejectsNegativeMargin(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, minimalConfig+`
  margin_percent: -5
`))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
