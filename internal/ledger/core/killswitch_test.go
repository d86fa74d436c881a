package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

func TestKillSwitchRegistry(t *testing.T) {
	t.Run("starts enabled", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		for _, f := range models.Features {
			assert.False(t, k.IsDisabled(f), f)
			assert.NoError(t, k.RequireEnabled(f))
		}
	})

	t.Run("fires exactly once", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		require.NoError(t, k.Disable(models.FeatureMint))
		assert.True(t, k.IsDisabled(models.FeatureMint))

		err := k.Disable(models.FeatureMint)
		require.ErrorIs(t, err, models.ErrAlreadyDisabled)
		assert.True(t, k.IsDisabled(models.FeatureMint))
	})

	t.Run("switches are independent", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		require.NoError(t, k.Disable(models.FeatureBurn))
		snapshot := k.Snapshot()
		for _, f := range models.Features {
			assert.Equal(t, f == models.FeatureBurn, snapshot[f], f)
		}
	})

	t.Run("disabled feature reports its name", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		k.ApplyDisable(models.FeatureAddAdmin)
		err := k.RequireEnabled(models.FeatureAddAdmin)
		var disabled *models.FeatureDisabledError
		require.ErrorAs(t, err, &disabled)
		assert.Equal(t, models.FeatureAddAdmin, disabled.Feature)
	})

	t.Run("unknown feature is a validation error", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		err := k.CanDisable("blacklist")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("snapshot is a copy", func(t *testing.T) {
		k := NewKillSwitchRegistry()
		snapshot := k.Snapshot()
		snapshot[models.FeaturePause] = true
		assert.False(t, k.IsDisabled(models.FeaturePause))
	})
}
