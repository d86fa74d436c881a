package core

import (
	"fmt"

	"dua/internal/ledger/models"
	dErrors "dua/pkg/domain-errors"
)

// KillSwitchRegistry holds one one-way flag per guarded capability.
// A flag moves from enabled to disabled exactly once; there is no enable.
type KillSwitchRegistry struct {
	disabled map[models.Feature]bool
}

func NewKillSwitchRegistry() *KillSwitchRegistry {
	disabled := make(map[models.Feature]bool, len(models.Features))
	for _, f := range models.Features {
		disabled[f] = false
	}
	return &KillSwitchRegistry{disabled: disabled}
}

func (k *KillSwitchRegistry) IsDisabled(f models.Feature) bool {
	return k.disabled[f]
}

// RequireEnabled fails with *models.FeatureDisabledError once f has fired.
func (k *KillSwitchRegistry) RequireEnabled(f models.Feature) error {
	if k.disabled[f] {
		return &models.FeatureDisabledError{Feature: f}
	}
	return nil
}

// CanDisable checks the enabled -> disabled transition without applying it.
func (k *KillSwitchRegistry) CanDisable(f models.Feature) error {
	if !f.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown feature %q", f))
	}
	if k.disabled[f] {
		return &models.AlreadyDisabledError{Feature: f}
	}
	return nil
}

// ApplyDisable fires the switch. Must only be called after CanDisable returns nil.
func (k *KillSwitchRegistry) ApplyDisable(f models.Feature) {
	k.disabled[f] = true
}

// Disable validates and applies in one call.
func (k *KillSwitchRegistry) Disable(f models.Feature) error {
	if err := k.CanDisable(f); err != nil {
		return err
	}
	k.ApplyDisable(f)
	return nil
}

// Snapshot returns a copy of every flag.
func (k *KillSwitchRegistry) Snapshot() map[models.Feature]bool {
	out := make(map[models.Feature]bool, len(k.disabled))
	for f, v := range k.disabled {
		out[f] = v
	}
	return out
}
