package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordKeepsBackendJSON(t *testing.T) {
	var recs []Record
	raw := `[{"id":1,"name":"MIT","deadline":null},{"id":"abc","is_read":true}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &recs))
	require.Len(t, recs, 2)

	assert.JSONEq(t, `{"id":1,"name":"MIT","deadline":null}`, string(recs[0]))
	assert.Equal(t, "1", recs[0].ID())
	assert.Equal(t, "MIT", recs[0].Str("name"))
	assert.False(t, recs[0].IsRead())

	assert.Equal(t, "abc", recs[1].ID())
	assert.True(t, recs[1].IsRead())

	out, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestRecordMissingID(t *testing.T) {
	assert.Equal(t, "", Record(`{"name":"x"}`).ID())
	b, err := json.Marshal(Record(nil))
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))
}

func TestMergeSettings(t *testing.T) {
	dark := "dark"
	got := MergeSettings(DefaultSettings(), SettingsPatch{ColorTheme: &dark})
	assert.Equal(t, Settings{
		EmailNotifications: true,
		PushNotifications:  true,
		ColorTheme:         "dark",
	}, got)

	off := false
	got = MergeSettings(got, SettingsPatch{PushNotifications: &off})
	assert.Equal(t, Settings{
		EmailNotifications: true,
		PushNotifications:  false,
		ColorTheme:         "dark",
	}, got)
}

func TestMergeSettingsFromPartialJSON(t *testing.T) {
	var patch SettingsPatch
	require.NoError(t, json.Unmarshal([]byte(`{"colorTheme":"dark"}`), &patch))
	assert.False(t, patch.Empty())
	assert.Equal(t, "dark", MergeSettings(DefaultSettings(), patch).ColorTheme)
	assert.True(t, SettingsPatch{}.Empty())
}

func TestSettingsPatchValidate(t *testing.T) {
	dark, purple := "dark", "purple"

	assert.NoError(t, SettingsPatch{}.Validate())
	assert.NoError(t, SettingsPatch{ColorTheme: &dark}.Validate())
	assert.ErrorIs(t, SettingsPatch{ColorTheme: &purple}.Validate(), ErrBadColorTheme)
}
