package domain

import "github.com/juju/errors"

// ErrBadColorTheme is returned for any theme other than light or dark.
const ErrBadColorTheme = errors.ConstError("colorTheme must be light or dark")

// ValidColorTheme reports whether theme is one the console can render.
func ValidColorTheme(theme string) bool {
	return theme == "light" || theme == "dark"
}

// MergeSettings applies patch on top of base field by field. Fields the
// patch leaves nil keep their current value.
func MergeSettings(base Settings, patch SettingsPatch) Settings {
	if patch.EmailNotifications != nil {
		base.EmailNotifications = *patch.EmailNotifications
	}
	if patch.PushNotifications != nil {
		base.PushNotifications = *patch.PushNotifications
	}
	if patch.ColorTheme != nil {
		base.ColorTheme = *patch.ColorTheme
	}
	return base
}

// Empty reports whether the patch would change nothing.
func (p SettingsPatch) Empty() bool {
	return p.EmailNotifications == nil && p.PushNotifications == nil && p.ColorTheme == nil
}

// Validate rejects values the console cannot apply.
func (p SettingsPatch) Validate() error {
	if p.ColorTheme != nil && !ValidColorTheme(*p.ColorTheme) {
		return ErrBadColorTheme
	}
	return nil
}
