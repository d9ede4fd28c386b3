package store

import (
	"context"
	"database/sql"

	"github.com/juju/errors"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

// Profiles keeps the console user, the Notion export log and the day of the
// last deadline check in SQLite. The backend owns every other record.
type Profiles struct {
	DB *sql.DB
}

func NewProfiles(db *sql.DB) *Profiles { return &Profiles{DB: db} }

func (p *Profiles) Migrate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id INTEGER PRIMARY KEY,
	email_notifications INTEGER NOT NULL,
	push_notifications INTEGER NOT NULL,
	color_theme TEXT NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS notion_exports (
	application_id TEXT PRIMARY KEY,
	notion_page_id TEXT NOT NULL,
	exported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS deadline_checks (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	checked_on TEXT NOT NULL
);
`)
	return errors.Annotate(err, "migrate")
}

// LoadUser returns the saved user, or a user with default settings when
// nothing has been saved yet.
func (p *Profiles) LoadUser(ctx context.Context) (domain.User, error) {
	u := domain.User{Settings: domain.DefaultSettings()}
	row := p.DB.QueryRowContext(ctx, `
		SELECT u.name, u.email, s.email_notifications, s.push_notifications, s.color_theme
		FROM users u JOIN user_settings s ON s.user_id = u.id
		WHERE u.id = 1`)

	switch err := row.Scan(&u.Name, &u.Email, &u.Settings.EmailNotifications, &u.Settings.PushNotifications, &u.Settings.ColorTheme); err {
	case nil, sql.ErrNoRows:
		return u, nil
	default:
		return domain.User{}, errors.Annotate(err, "load user")
	}
}

// SaveUser writes the user row and its settings in one transaction.
func (p *Profiles) SaveUser(ctx context.Context, u domain.User) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return errors.Trace(err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, name, email) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email, updated_at = CURRENT_TIMESTAMP`,
		u.Name, u.Email,
	); err != nil {
		return errors.Annotate(err, "save user")
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, email_notifications, push_notifications, color_theme)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			email_notifications = excluded.email_notifications,
			push_notifications = excluded.push_notifications,
			color_theme = excluded.color_theme`,
		u.Settings.EmailNotifications,
		u.Settings.PushNotifications,
		u.Settings.ColorTheme,
	); err != nil {
		return errors.Annotate(err, "save settings")
	}

	committed = true
	return errors.Trace(tx.Commit())
}

// SaveNotionExport remembers which Notion page an application was exported to.
func (p *Profiles) SaveNotionExport(ctx context.Context, applicationID, notionPageID string) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO notion_exports (application_id, notion_page_id) VALUES (?, ?)
		ON CONFLICT(application_id) DO UPDATE SET notion_page_id = excluded.notion_page_id, exported_at = CURRENT_TIMESTAMP`,
		applicationID, notionPageID,
	)
	return errors.Annotate(err, "save notion export")
}

// NotionExport returns the page id recorded for an application, or "".
func (p *Profiles) NotionExport(ctx context.Context, applicationID string) (string, error) {
	var pageID string
	err := p.DB.QueryRowContext(ctx,
		`SELECT notion_page_id FROM notion_exports WHERE application_id = ?`, applicationID,
	).Scan(&pageID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return pageID, errors.Annotate(err, "load notion export")
}

// LastDeadlineCheck returns the day (YYYY-MM-DD) deadlines were last checked,
// or "" if never.
func (p *Profiles) LastDeadlineCheck(ctx context.Context) (string, error) {
	var day string
	err := p.DB.QueryRowContext(ctx, `SELECT checked_on FROM deadline_checks WHERE id = 1`).Scan(&day)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return day, errors.Annotate(err, "load deadline check")
}

func (p *Profiles) SaveDeadlineCheck(ctx context.Context, day string) error {
	_, err := p.DB.ExecContext(ctx, `
		INSERT INTO deadline_checks (id, checked_on) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET checked_on = excluded.checked_on`,
		day,
	)
	return errors.Annotate(err, "save deadline check")
}
