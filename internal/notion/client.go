package notion

import (
	"context"
	"time"

	gnt "github.com/dstotijn/go-notion"
	"github.com/juju/errors"

	"github.com/UninstallAll/PhDAuto/internal/domain"
)

type Client struct {
	api        *gnt.Client
	databaseID string
}

func New(token, databaseID string, opts ...gnt.ClientOption) *Client {
	return &Client{
		api:        gnt.NewClient(token, opts...),
		databaseID: NormalizeID(databaseID),
	}
}

// Ping queries one row of the export database to check token and sharing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.api.QueryDatabase(ctx, c.databaseID, &gnt.DatabaseQuery{
		PageSize: 1,
	})
	return errors.Annotate(err, "query notion database")
}

// Database is the id and title of a database the integration can see.
type Database struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SearchDatabases lists up to 20 databases shared with the integration, for
// finding the id to put in NOTION_DB_ID.
func (c *Client) SearchDatabases(ctx context.Context) ([]Database, error) {
	resp, err := c.api.Search(ctx, &gnt.SearchOpts{
		Filter: &gnt.SearchFilter{
			Property: "object",
			Value:    "database",
		},
		PageSize: 20,
	})
	if err != nil {
		return nil, errors.Annotate(err, "search notion databases")
	}

	dbs := []Database{}
	for _, obj := range resp.Results {
		db, ok := obj.(gnt.Database)
		if !ok {
			continue
		}
		title := ""
		if len(db.Title) > 0 {
			title = db.Title[0].PlainText
		}
		dbs = append(dbs, Database{ID: db.ID, Title: title})
	}
	return dbs, nil
}

// richText wraps plain text as a single rich_text run.
func richText(s string) []gnt.RichText {
	if s == "" {
		return nil
	}
	return []gnt.RichText{
		{
			Text: &gnt.Text{
				Content: s,
			},
		},
	}
}

// dateProp parses a backend timestamp; FastAPI emits ISO 8601 without a zone.
func dateProp(s string) *gnt.Date {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &gnt.Date{Start: gnt.NewDateTime(t, layout != "2006-01-02")}
		}
	}
	return nil
}

// buildApplicationProperties maps an application record (and the school it
// belongs to, when known) onto the tracker database columns.
func buildApplicationProperties(app, school domain.Record) gnt.DatabasePageProperties {
	props := gnt.DatabasePageProperties{}

	// School: the title property
	name := school.Str("name")
	if name == "" {
		name = "Application " + app.ID()
	}
	props["School"] = gnt.DatabasePageProperty{
		Title: richText(name),
	}

	if program := school.Str("program"); program != "" {
		props["Program"] = gnt.DatabasePageProperty{
			RichText: richText(program),
		}
	}

	if website := school.Str("website"); website != "" {
		props["Website"] = gnt.DatabasePageProperty{
			URL: &website,
		}
	}

	// Status: select
	if status := app.Str("status"); status != "" {
		props["Status"] = gnt.DatabasePageProperty{
			Select: &gnt.SelectOptions{
				Name: status,
			},
		}
	}

	if d := dateProp(app.Str("submission_date")); d != nil {
		props["Submitted"] = gnt.DatabasePageProperty{Date: d}
	}
	if d := dateProp(school.Str("application_deadline")); d != nil {
		props["Deadline"] = gnt.DatabasePageProperty{Date: d}
	}

	if notes := app.Str("notes"); notes != "" {
		props["Notes"] = gnt.DatabasePageProperty{
			RichText: richText(notes),
		}
	}

	props["Application ID"] = gnt.DatabasePageProperty{
		RichText: richText(app.ID()),
	}

	return props
}

// ExportApplication creates a row for the application in the tracker DB and
// returns the new page id. school may be nil; application detail records from
// the backend embed it under "school".
func (c *Client) ExportApplication(ctx context.Context, app, school domain.Record) (string, error) {
	if school == nil {
		if embedded := app.Get("school"); embedded.IsObject() {
			school = domain.Record(embedded.Raw)
		}
	}
	props := buildApplicationProperties(app, school)

	params := gnt.CreatePageParams{
		ParentType:             gnt.ParentTypeDatabase,
		ParentID:               c.databaseID,
		DatabasePageProperties: &props,
	}

	page, err := c.api.CreatePage(ctx, params)
	if err != nil {
		return "", errors.Annotatef(err, "create notion page for application %s", app.ID())
	}
	return page.ID, nil
}
