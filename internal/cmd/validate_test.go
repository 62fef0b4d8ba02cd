package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repofleet/pkg/github/fake"
)

func TestValidate_BuiltInCatalog(t *testing.T) {
	resetFlags(t)
	writeConfig(t, "organization: org\n")
	calls := useClient(t, fake.NewClient("org"))
	out := testCommand(t, validateCmd, "")

	require.NoError(t, runValidate(validateCmd, nil))

	output := out.String()
	assert.Contains(t, output, "✓ Organization: org")
	assert.Contains(t, output, "✓ Catalog (built-in): 6 labels, default branch master")
	assert.Contains(t, output, "⚠️  No template directory set")
	assert.Contains(t, output, "✅ Validation passed")
	assert.Equal(t, 0, *calls, "offline validation does not authenticate")
}

func TestValidate_CatalogFile(t *testing.T) {
	resetFlags(t)
	writeConfig(t, "organization: org\n")
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "templates"), 0755))
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("template_dir: templates\nsettings:\n  default_branch: main\n"), 0644))
	validateCatalog = path
	out := testCommand(t, validateCmd, "")

	require.NoError(t, runValidate(validateCmd, nil))

	assert.Contains(t, out.String(), "default branch main")
	assert.Contains(t, out.String(), "✓ Templates: "+filepath.Join(dir, "templates"))
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		catalog string
		wantErr string
	}{
		{
			name:    "clone protocol",
			config:  "organization: org\nclone_protocol: ftp\n",
			wantErr: "invalid clone protocol",
		},
		{
			name:    "half commit author",
			config:  "organization: org\ncommit_author:\n  name: bot\n",
			wantErr: "commit author needs both name and email",
		},
		{
			name:    "label color",
			config:  "organization: org\n",
			catalog: "labels:\n  - name: bug\n    color: \"#d73a4a\"\n",
			wantErr: "invalid catalog",
		},
		{
			name:    "config syntax",
			config:  "organization: [org\n",
			wantErr: "failed to load repofleet config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			writeConfig(t, tt.config)
			if tt.catalog != "" {
				path := filepath.Join(t.TempDir(), "catalog.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.catalog), 0644))
				validateCatalog = path
			}
			out := testCommand(t, validateCmd, "")

			err := runValidate(validateCmd, nil)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, out.String(), "❌")
		})
	}
}

func TestValidate_Online(t *testing.T) {
	resetFlags(t)
	writeConfig(t, "organization: org\n")
	client := fake.NewClient("org")
	client.AddRepo("a", "master")
	client.AddRepo("b", "master")
	calls := useClient(t, client)
	validateOnline = true
	out := testCommand(t, validateCmd, "")

	require.NoError(t, runValidate(validateCmd, nil))

	assert.Equal(t, 1, *calls)
	assert.Contains(t, out.String(), "✓ 2 repositories in org")
}

func TestValidate_OnlineListError(t *testing.T) {
	resetFlags(t)
	writeConfig(t, "organization: org\n")
	client := fake.NewClient("org")
	client.Errors["ListRepositories"] = errors.New("forbidden")
	useClient(t, client)
	validateOnline = true
	out := testCommand(t, validateCmd, "")

	err := runValidate(validateCmd, nil)

	require.Error(t, err)
	assert.Contains(t, out.String(), "❌ Cannot list repositories of org: forbidden")
}
