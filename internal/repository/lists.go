package repository

import (
	"database/sql"
	"encoding/json"
)

// amenities and images are stored as JSON-encoded arrays inside TEXT
// columns.  These helpers translate between the column value and []string.
// A row written before the column existed, or holding malformed JSON,
// decodes to an empty list rather than failing the whole query.

func encodeStringList(list []string) any {
	if len(list) == 0 {
		return nil
	}
	b, err := json.Marshal(list)
	if err != nil {
		return nil
	}
	return string(b)
}

func decodeStringList(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return []string{}
	}
	return out
}
