package sms

import (
	"strings"

	"golang.org/x/text/cases"
)

// Search returns the records whose Address or Body contains query, compared
// with Unicode case folding. An empty query returns records unchanged.
func Search(records []Record, query string) []Record {
	if query == "" {
		return records
	}

	folder := cases.Fold()
	needle := folder.String(query)

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if strings.Contains(folder.String(record.Address), needle) || strings.Contains(folder.String(record.Body), needle) {
			matched = append(matched, record)
		}
	}
	return matched
}
