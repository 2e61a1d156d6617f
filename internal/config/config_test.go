package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.GithubConfigured())
	assert.False(t, cfg.GitlabConfigured())
	assert.Equal(t, "https://gitlab.com", cfg.GitlabHost)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("DASHGIT_GITHUB_TOKEN", "gh-token")
	t.Setenv("DASHGIT_GITHUB_USERNAME", "alice")
	t.Setenv("DASHGIT_GITLAB_TOKEN", "gl-token")
	t.Setenv("DASHGIT_GITLAB_HOST", "https://git.example.com/")
	t.Setenv("DASHGIT_TIMEOUT", "45s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.GithubConfigured())
	assert.Equal(t, "alice", cfg.GithubUsername)
	assert.True(t, cfg.GitlabConfigured())
	assert.Equal(t, "https://git.example.com", cfg.GitlabHost, "trailing slash is trimmed")
	assert.Equal(t, 45*time.Second, cfg.Timeout)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("github_token: file-token\ngitlab_username: bob\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.GithubToken)
	assert.Equal(t, "bob", cfg.GitlabUsername)
	assert.Equal(t, "https://gitlab.com", cfg.GitlabHost)
}

func TestLoad_EnvironmentWinsOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("github_token: file-token\n"), 0o600))
	t.Setenv("DASHGIT_GITHUB_TOKEN", "env-token")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.GithubToken)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
