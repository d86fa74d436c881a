package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	caller := Account{0xab}
	err := &UnauthorizedError{Role: RoleAdmin, Caller: caller}
	assert.Equal(t,
		"AccessControl: account 0xab00000000000000000000000000000000000000 is missing role "+
			"0xa49807205ce4d355092ef5a8a18f56e8913cf4a201fbe287825b095693c21775",
		err.Error())
	assert.True(t, errors.Is(err, ErrUnauthorized))

	assert.Equal(t, "Pausable functionality has been self-destructed",
		(&FeatureDisabledError{Feature: FeaturePause}).Error())
	assert.Equal(t, "Minting functionality has been self-destructed",
		(&FeatureDisabledError{Feature: FeatureMint}).Error())
	assert.Equal(t, "Burning functionality has been self-destructed",
		(&FeatureDisabledError{Feature: FeatureBurn}).Error())
	assert.Equal(t, "Minter addition functionality has been self-destructed",
		(&FeatureDisabledError{Feature: FeatureAddMinter}).Error())
	assert.Equal(t, "Admin addition functionality has been self-destructed",
		(&FeatureDisabledError{Feature: FeatureAddAdmin}).Error())
	assert.Equal(t, "Pausable: paused", ErrContractPaused.Error())
}
