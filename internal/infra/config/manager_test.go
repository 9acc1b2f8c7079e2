package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ProjectConfigInfo(t *testing.T) {
	projectDir := t.TempDir()
	m := NewManagerWithGlobalDir(projectDir, t.TempDir())

	info := m.ProjectConfigInfo()
	assert.False(t, info.Exists)
	assert.Equal(t, filepath.Join(projectDir, domain.ProjectConfigName), info.Path)

	require.NoError(t, os.WriteFile(info.Path, []byte(`backend = "memory"`), 0o644))
	info = m.ProjectConfigInfo()
	assert.True(t, info.Exists)
	assert.Equal(t, `backend = "memory"`, info.Content)
}

func TestManager_InitProjectConfig(t *testing.T) {
	m := NewManagerWithGlobalDir(t.TempDir(), t.TempDir())

	require.NoError(t, m.InitProjectConfig())

	info := m.ProjectConfigInfo()
	require.True(t, info.Exists)
	assert.Equal(t, domain.ConfigTemplate(), info.Content)

	stat, err := os.Stat(info.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), stat.Mode().Perm())

	assert.ErrorIs(t, m.InitProjectConfig(), domain.ErrConfigExists)
}

func TestManager_InitGlobalConfig(t *testing.T) {
	globalDir := filepath.Join(t.TempDir(), "nested", "tasktracker")
	m := NewManagerWithGlobalDir(t.TempDir(), globalDir)

	require.NoError(t, m.InitGlobalConfig())

	assert.True(t, m.GlobalConfigInfo().Exists)
	assert.ErrorIs(t, m.InitGlobalConfig(), domain.ErrConfigExists)
}

func TestManager_NoGlobalDir(t *testing.T) {
	m := NewManagerWithGlobalDir(t.TempDir(), "")

	assert.Equal(t, domain.ConfigInfo{}, m.GlobalConfigInfo())
	assert.Error(t, m.InitGlobalConfig())
}
