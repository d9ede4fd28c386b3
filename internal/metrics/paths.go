package metrics

import "strings"

var recordCollections = map[string]bool{
	"schools":       true,
	"professors":    true,
	"applications":  true,
	"emails":        true,
	"documents":     true,
	"notifications": true,
}

// collapsePath turns "/schools/12" into "/schools/{id}" and
// "/notifications/4/read" into "/notifications/{id}/read".
func collapsePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && recordCollections[parts[0]] && parts[1] != "" && parts[1] != "check-deadlines" {
		parts[1] = "{id}"
	}
	return "/" + strings.Join(parts, "/")
}
