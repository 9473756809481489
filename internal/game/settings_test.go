// internal/game/settings_test.go
package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int          { return &v }
func boolPtr(v bool) *bool       { return &v }
func strPtr(v string) *string    { return &v }

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	assert.Equal(t, 7, s.MaximumUsers)
	assert.Equal(t, 5, s.RoundsCount)
	assert.Equal(t, 5, s.CardsCount)
	assert.Equal(t, 30, s.VoteDuration)
	assert.Equal(t, 60, s.ChooseCardDuration)
	assert.False(t, s.IsNSFW)
	assert.False(t, s.IsAnonymousVotes)
	assert.Equal(t, "ru", s.Language)
}

func TestSettingsApplyMergesPartial(t *testing.T) {
	s := DefaultSettings()
	s.Apply(SettingsPatch{
		RoundsCount: intPtr(3),
		IsNSFW:      boolPtr(true),
		Language:    strPtr("en"),
	})

	assert.Equal(t, 3, s.RoundsCount)
	assert.True(t, s.IsNSFW)
	assert.Equal(t, "en", s.Language)

	// Unspecified fields keep their previous values.
	assert.Equal(t, 7, s.MaximumUsers)
	assert.Equal(t, 5, s.CardsCount)
	assert.Equal(t, 30, s.VoteDuration)
	assert.Equal(t, 60, s.ChooseCardDuration)
	assert.False(t, s.IsAnonymousVotes)
}

func TestSettingsApplyEmptyPatchIsNoop(t *testing.T) {
	s := DefaultSettings()
	s.Apply(SettingsPatch{})
	assert.Equal(t, DefaultSettings(), s)
}
