package usecase_test

import (
	"context"
	"testing"

	"github.com/Phoethar22452/supabase-task-tracker/internal/domain"
	"github.com/Phoethar22452/supabase-task-tracker/internal/testutil"
	"github.com/Phoethar22452/supabase-task-tracker/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowConfig_Execute(t *testing.T) {
	t.Run("returns both config infos and effective config", func(t *testing.T) {
		manager := &testutil.MockConfigManager{
			Global:  domain.ConfigInfo{Path: "/home/me/.config/tasktracker/config.toml", Content: "[log]\nlevel = \"debug\"", Exists: true},
			Project: domain.ConfigInfo{Path: "/work/.tasktracker.toml"},
		}
		cfg := domain.NewDefaultConfig()
		cfg.Backend = domain.BackendMemory
		loader := &testutil.MockConfigLoader{Config: cfg}

		out, err := usecase.NewShowConfig(manager, loader).Execute(context.Background(), usecase.ShowConfigInput{})

		require.NoError(t, err)
		assert.True(t, out.GlobalConfig.Exists)
		assert.False(t, out.ProjectConfig.Exists)
		assert.Equal(t, domain.BackendMemory, out.Effective.Backend)
	})

	t.Run("returns error when loading fails", func(t *testing.T) {
		loader := &testutil.MockConfigLoader{LoadErr: assert.AnError}

		_, err := usecase.NewShowConfig(&testutil.MockConfigManager{}, loader).Execute(context.Background(), usecase.ShowConfigInput{})

		assert.ErrorIs(t, err, assert.AnError)
	})
}
