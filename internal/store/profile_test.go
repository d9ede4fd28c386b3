package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

func openTestProfiles(t *testing.T) *Profiles {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "console.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	p := NewProfiles(db)
	require.NoError(t, p.Migrate(context.Background()))
	return p
}

func TestLoadUserDefaultsWhenEmpty(t *testing.T) {
	p := openTestProfiles(t)
	u, err := p.LoadUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.User{Settings: domain.DefaultSettings()}, u)
}

func TestSaveUserRoundTrip(t *testing.T) {
	p := openTestProfiles(t)
	ctx := context.Background()

	u := domain.User{
		Name:  "Lin",
		Email: "lin@example.edu",
		Settings: domain.Settings{
			EmailNotifications: false,
			PushNotifications:  true,
			ColorTheme:         "dark",
		},
	}
	require.NoError(t, p.SaveUser(ctx, u))

	got, err := p.LoadUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u, got)

	u.Settings.ColorTheme = "light"
	require.NoError(t, p.SaveUser(ctx, u))
	got, err = p.LoadUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Settings.ColorTheme)
}

func TestNotionExportRoundTrip(t *testing.T) {
	p := openTestProfiles(t)
	ctx := context.Background()

	got, err := p.NotionExport(ctx, "3")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, p.SaveNotionExport(ctx, "3", "page-a"))
	require.NoError(t, p.SaveNotionExport(ctx, "3", "page-b"))
	got, err = p.NotionExport(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "page-b", got)
}

func TestDeadlineCheckRoundTrip(t *testing.T) {
	p := openTestProfiles(t)
	ctx := context.Background()

	day, err := p.LastDeadlineCheck(ctx)
	require.NoError(t, err)
	assert.Empty(t, day)

	require.NoError(t, p.SaveDeadlineCheck(ctx, "2026-10-18"))
	require.NoError(t, p.SaveDeadlineCheck(ctx, "2026-10-19"))
	day, err = p.LastDeadlineCheck(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", day)
}

func TestSaveUserRollsBackOnSettingsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").
		WithArgs("Lin", "lin@example.edu").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_settings").
		WithArgs(true, true, "light").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = NewProfiles(db).SaveUser(context.Background(), domain.User{
		Name:     "Lin",
		Email:    "lin@example.edu",
		Settings: domain.DefaultSettings(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save settings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUserCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_settings").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, NewProfiles(db).SaveUser(context.Background(), domain.User{Settings: domain.DefaultSettings()}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
