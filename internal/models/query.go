package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a search query is missing or blank.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery is a recruiter query.
type SearchQuery struct {
	Query string `json:"query"`
}

// Validate trims the query and rejects blank input.
func (q *SearchQuery) Validate() error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	return nil
}
