package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexcrawford/actual-monzo-sub000/internal/core/domain"
)

func TestApplyMappings_AddsMapping(t *testing.T) {
	cfg := &domain.Config{}
	names := map[string]string{"acc_1": "Current Account"}

	err := applyMappings(cfg, []string{"acc_1=act_1"}, names)

	require.NoError(t, err)
	require.Len(t, cfg.Mappings, 1)
	assert.Equal(t, "acc_1", cfg.Mappings[0].MonzoAccountID)
	assert.Equal(t, "Current Account", cfg.Mappings[0].MonzoAccountName)
	assert.Equal(t, "act_1", cfg.Mappings[0].ActualAccountID)
}

func TestApplyMappings_RemapReplacesWholeMapping(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.AccountMapping{
			{MonzoAccountID: "acc_1", MonzoAccountName: "Old Name", ActualAccountID: "act_old"},
		},
	}
	names := map[string]string{"acc_1": "Current Account"}

	err := applyMappings(cfg, []string{"acc_1=act_new"}, names)

	require.NoError(t, err)
	require.Len(t, cfg.Mappings, 1)
	assert.Equal(t, "act_new", cfg.Mappings[0].ActualAccountID)
	// The display name follows the live account list, never goes stale.
	assert.Equal(t, "Current Account", cfg.Mappings[0].MonzoAccountName)
}

func TestApplyMappings_RejectsMalformedPair(t *testing.T) {
	cfg := &domain.Config{}

	assert.Error(t, applyMappings(cfg, []string{"acc_1"}, nil))
	assert.Error(t, applyMappings(cfg, []string{"=act_1"}, nil))
	assert.Error(t, applyMappings(cfg, []string{"acc_1="}, nil))
}

func TestApplyMappings_RejectsUnknownAccount(t *testing.T) {
	cfg := &domain.Config{}
	names := map[string]string{"acc_1": "Current Account"}

	err := applyMappings(cfg, []string{"acc_2=act_1"}, names)
	assert.Error(t, err)
	assert.Empty(t, cfg.Mappings)
}
