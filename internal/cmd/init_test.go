package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/catalog"
	"repofleet/pkg/config"
)

func TestInit_WritesConfig(t *testing.T) {
	resetFlags(t)
	configPath = filepath.Join(t.TempDir(), "nested", "config.yaml")
	out := testCommand(t, initCmd, "")

	require.NoError(t, runInit(initCmd, nil))

	cfg, err := config.LoadConfigFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOrganization, cfg.Organization)
	assert.Equal(t, config.CloneProtocolHTTPS, cfg.CloneProtocol)
	assert.Contains(t, out.String(), "✅ Configuration file created at: "+configPath)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestInit_ExistingConfig(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		wantOverwrite bool
	}{
		{name: "declined", input: "n\n", wantOverwrite: false},
		{name: "no answer", input: "", wantOverwrite: false},
		{name: "accepted", input: "y\n", wantOverwrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			configPath = writeConfig(t, "organization: mine\n")
			out := testCommand(t, initCmd, tt.input)

			require.NoError(t, runInit(initCmd, nil))

			cfg, err := config.LoadConfigFromPath(configPath)
			require.NoError(t, err)
			assert.Contains(t, out.String(), "already exists")
			if tt.wantOverwrite {
				assert.Equal(t, config.DefaultOrganization, cfg.Organization)
			} else {
				assert.Equal(t, "mine", cfg.Organization)
				assert.Contains(t, out.String(), "cancelled")
			}
		})
	}
}

func TestInit_WritesCatalog(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	initCatalog = filepath.Join(dir, "catalog.yaml")
	out := testCommand(t, initCmd, "")

	require.NoError(t, runInit(initCmd, nil))

	c, err := catalog.LoadFromFile(initCatalog)
	require.NoError(t, err)
	assert.Equal(t, catalog.Default(), c)

	cfg, err := config.LoadConfigFromPath(configPath)
	require.NoError(t, err)
	assert.Equal(t, initCatalog, cfg.Catalog)
	assert.Contains(t, out.String(), "✅ Catalog written to: "+initCatalog)
}
