package domain

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Record is one backend entity (school, professor, application, email,
// document or notification) kept as the exact JSON the backend sent.
type Record json.RawMessage

// MarshalJSON writes the record back out verbatim.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the raw element.
func (r *Record) UnmarshalJSON(b []byte) error {
	*r = append((*r)[0:0], b...)
	return nil
}

// Get looks up a gjson path inside the record.
func (r Record) Get(path string) gjson.Result {
	return gjson.GetBytes(r, path)
}

// Str is Get(path).String(), handy from templates.
func (r Record) Str(path string) string {
	return r.Get(path).String()
}

// ID returns the record's "id" field as text, or "" when absent.
func (r Record) ID() string {
	return r.Get("id").String()
}

// IsRead reports the notification "is_read" flag. Missing means unread.
func (r Record) IsRead() bool {
	return r.Get("is_read").Bool()
}

// Settings is the fixed-shape user preferences record.
type Settings struct {
	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	ColorTheme         string `json:"colorTheme"`
}

// DefaultSettings are the preferences of a fresh console.
func DefaultSettings() Settings {
	return Settings{
		EmailNotifications: true,
		PushNotifications:  true,
		ColorTheme:         "light",
	}
}

// SettingsPatch is a partial Settings; nil fields are left alone on merge.
type SettingsPatch struct {
	EmailNotifications *bool   `json:"emailNotifications,omitempty"`
	PushNotifications  *bool   `json:"pushNotifications,omitempty"`
	ColorTheme         *string `json:"colorTheme,omitempty"`
}

type User struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Settings Settings `json:"settings"`
}

// SearchResults maps a query type ("school", "professor", ...) to the raw
// response of the last search of that type.
type SearchResults map[string]json.RawMessage

// StudentInfo is what the applicant tells the drafter about themselves.
type StudentInfo struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Background       string `json:"background,omitempty"`
	ResearchInterest string `json:"research_interest,omitempty"`
}

type EmailDraft struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// SMTPCredentials are forwarded to the backend, which does the sending.
type SMTPCredentials struct {
	Server   string `json:"smtp_server"`
	Port     int    `json:"smtp_port"`
	Username string `json:"username"`
	Password string `json:"password"`
}
