package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BUDGETEER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Uncategorized", cfg.Import.DefaultCategory)
	require.Equal(t, "UTC", cfg.Import.Timezone)
	require.Equal(t, "YELP_API_KEY", cfg.Yelp.APIKeyEnv)
	require.NotEmpty(t, cfg.Database.Path)
	require.NotEmpty(t, cfg.Database.MigrationsPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[database]
path = "/tmp/custom.db"
migrations_path = "/tmp/migrations"

[import]
default_category = "Misc"

[yelp]
api_key = "file-key"
`), 0o644))
	t.Setenv("BUDGETEER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	require.Equal(t, "/tmp/migrations", cfg.Database.MigrationsPath)
	require.Equal(t, "Misc", cfg.Import.DefaultCategory)
	require.Equal(t, "file-key", cfg.ResolveYelpKey())
}

func TestResolveYelpKeyFallsBackToEnv(t *testing.T) {
	t.Setenv("BUDGETEER_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("YELP_API_KEY", "env-key")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "env-key", cfg.ResolveYelpKey())
}
