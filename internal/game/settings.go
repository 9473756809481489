// internal/game/settings.go
package game

// Settings is the lobby configuration. It is owned by the Lobby and
// replaced wholesale on update; durations are in time units (one Tick).
type Settings struct {
	MaximumUsers       int `json:"maximumUsers"`
	RoundsCount        int `json:"roundsCount"`
	CardsCount         int `json:"cardsCount"`
	VoteDuration       int `json:"voteDuration"`
	ChooseCardDuration int `json:"chooseCardDuration"`

	IsNSFW           bool `json:"isNsfw"`
	IsAnonymousVotes bool `json:"isAnonymousVotes"`

	Language string `json:"language"`
}

// DefaultSettings returns the settings a fresh lobby starts with.
func DefaultSettings() Settings {
	return Settings{
		MaximumUsers:       7,
		RoundsCount:        5,
		CardsCount:         5,
		VoteDuration:       30,
		ChooseCardDuration: 60,
		IsNSFW:             false,
		IsAnonymousVotes:   false,
		Language:           "ru",
	}
}

// SettingsPatch is a partial settings update. Nil fields are left untouched.
type SettingsPatch struct {
	MaximumUsers       *int `json:"maximumUsers,omitempty"`
	RoundsCount        *int `json:"roundsCount,omitempty"`
	CardsCount         *int `json:"cardsCount,omitempty"`
	VoteDuration       *int `json:"voteDuration,omitempty"`
	ChooseCardDuration *int `json:"chooseCardDuration,omitempty"`

	IsNSFW           *bool `json:"isNsfw,omitempty"`
	IsAnonymousVotes *bool `json:"isAnonymousVotes,omitempty"`

	Language *string `json:"language,omitempty"`
}

// Apply merges the patch into s, field by field.
func (s *Settings) Apply(p SettingsPatch) {
	if p.MaximumUsers != nil {
		s.MaximumUsers = *p.MaximumUsers
	}
	if p.RoundsCount != nil {
		s.RoundsCount = *p.RoundsCount
	}
	if p.CardsCount != nil {
		s.CardsCount = *p.CardsCount
	}
	if p.VoteDuration != nil {
		s.VoteDuration = *p.VoteDuration
	}
	if p.ChooseCardDuration != nil {
		s.ChooseCardDuration = *p.ChooseCardDuration
	}
	if p.IsNSFW != nil {
		s.IsNSFW = *p.IsNSFW
	}
	if p.IsAnonymousVotes != nil {
		s.IsAnonymousVotes = *p.IsAnonymousVotes
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
}
