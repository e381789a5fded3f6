package config

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFile(t *testing.T) {
	fsys := afero.NewMemMapFs()

	cfg, err := Load(fsys, "config.yml")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrompt, cfg.Prompt)
	assert.Equal(t, DefaultMaxArgs, cfg.MaxArgs)
	assert.Equal(t, MinJobs, cfg.MaxJobs)
	assert.True(t, cfg.LineEditing)
	assert.NotEmpty(t, cfg.HomeDir)
	assert.Contains(t, cfg.HistoryFile, DefaultHistoryName)
}

func TestLoadOverridesDefaults(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "config.yml", []byte(`
prompt: "smallsh> "
home_dir: /home/test
max_jobs: 1024
color: false
`), 0o644))

	cfg, err := Load(fsys, "config.yml")
	require.NoError(t, err)
	assert.Equal(t, "smallsh> ", cfg.Prompt)
	assert.Equal(t, "/home/test", cfg.HomeDir)
	assert.Equal(t, "/home/test/.smallsh_history", cfg.HistoryFile)
	assert.Equal(t, 1024, cfg.MaxJobs)
	assert.False(t, cfg.Color)
	assert.Equal(t, DefaultMaxLine, cfg.MaxLine)
}

func TestLoadRejectsUnknownField(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "config.yml", []byte("promt: oops\n"), 0o644))

	_, err := Load(fsys, "config.yml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.MaxJobs = 16

	err := cfg.Validate()
	require.Error(t, err)

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "max_jobs", verrs[0].Field())
}
