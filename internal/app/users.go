package app

import (
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

// Profile returns the user record for the authenticated caller.
func (a *App) Profile(userID string) (domain.User, error) {
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, apperr.Wrap(apperr.KindInternal, "profile_failed", "could not load profile", err)
	}
	if !found {
		return domain.User{}, apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	}
	return user, nil
}

// Settings returns the caller's accessibility settings, falling back to
// defaults when none were stored yet.
func (a *App) Settings(userID string) (domain.UserSettings, error) {
	settings, found, err := a.store.GetSettings(userID)
	if err != nil {
		return domain.UserSettings{}, apperr.Wrap(apperr.KindInternal, "settings_failed", "could not load settings", err)
	}
	if !found {
		return domain.DefaultSettings(userID), nil
	}
	return settings, nil
}

// SettingsUpdate carries a partial accessibility settings change; nil
// fields keep their stored value.
type SettingsUpdate struct {
	TTSEnabled       *bool    `json:"ttsEnabled"`
	TTSRate          *float64 `json:"ttsRate"`
	HapticEnabled    *bool    `json:"hapticEnabled"`
	VoicePromptLevel *int     `json:"voicePromptLevel"`
}

// UpdateSettings applies a partial settings change and returns the
// merged result.
func (a *App) UpdateSettings(userID string, update SettingsUpdate) (domain.UserSettings, error) {
	settings, err := a.Settings(userID)
	if err != nil {
		return domain.UserSettings{}, err
	}
	if update.TTSEnabled != nil {
		settings.TTSEnabled = *update.TTSEnabled
	}
	if update.TTSRate != nil {
		if *update.TTSRate < 0.5 || *update.TTSRate > 3.0 {
			return domain.UserSettings{}, apperr.New(apperr.KindInvalidPayload, "invalid_tts_rate", "ttsRate must be between 0.5 and 3.0")
		}
		settings.TTSRate = *update.TTSRate
	}
	if update.HapticEnabled != nil {
		settings.HapticEnabled = *update.HapticEnabled
	}
	if update.VoicePromptLevel != nil {
		if *update.VoicePromptLevel < 0 || *update.VoicePromptLevel > 3 {
			return domain.UserSettings{}, apperr.New(apperr.KindInvalidPayload, "invalid_prompt_level", "voicePromptLevel must be between 0 and 3")
		}
		settings.VoicePromptLevel = *update.VoicePromptLevel
	}
	if err := a.store.SaveSettings(settings); err != nil {
		return domain.UserSettings{}, apperr.Wrap(apperr.KindInternal, "settings_save_failed", "could not save settings", err)
	}
	return settings, nil
}
